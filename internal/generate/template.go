package generate

import (
	"context"
	"fmt"
	"strings"
)

// TemplateGenerator produces a fixed document outline without calling any
// external service. It is the default provider when no API key is
// configured, and doubles as the offline test double.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a deterministic offline generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate returns the outline for the selections. Never fails.
func (g *TemplateGenerator) Generate(ctx context.Context, degree, task, topic string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	// School lessons run one hour; everything above runs 80 minutes.
	duration := "80 daqiqa"
	if strings.Contains(degree, "Maktab") {
		duration = "1 soat"
	}

	return fmt.Sprintf(`
%s

Mavzu: %s
Daraja: %s
Davomiyligi: %s

1. Maqsad
2. Kirish
3. Asosiy qism
4. Yakun
`, task, topic, degree, duration), nil
}

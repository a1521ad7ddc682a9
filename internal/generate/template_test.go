package generate

import (
	"context"
	"strings"
	"testing"
)

func TestTemplateGenerate(t *testing.T) {
	g := NewTemplateGenerator()
	ctx := context.Background()

	body, err := g.Generate(ctx, "🏫 Maktab o'qituvchisi", "📚 Dars ishlanma", "Suv aylanishi")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, want := range []string{
		"📚 Dars ishlanma",
		"Mavzu: Suv aylanishi",
		"Daraja: 🏫 Maktab o'qituvchisi",
		"Davomiyligi: 1 soat",
		"1. Maqsad",
		"4. Yakun",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestTemplateDurationByDegree(t *testing.T) {
	g := NewTemplateGenerator()
	ctx := context.Background()

	tests := []struct {
		degree string
		want   string
	}{
		{"🏫 Maktab o'qituvchisi", "Davomiyligi: 1 soat"},
		{"🎓 Texnikum o'qituvchisi", "Davomiyligi: 80 daqiqa"},
		{"👩‍🏫 Universitet o'qituvchisi", "Davomiyligi: 80 daqiqa"},
	}

	for _, tt := range tests {
		body, err := g.Generate(ctx, tt.degree, "📝 Tezis", "Kasrlar")
		if err != nil {
			t.Fatalf("generate for %q: %v", tt.degree, err)
		}
		if !strings.Contains(body, tt.want) {
			t.Errorf("degree %q: body missing %q", tt.degree, tt.want)
		}
	}
}

func TestTemplateDeterministic(t *testing.T) {
	g := NewTemplateGenerator()
	ctx := context.Background()

	first, err := g.Generate(ctx, "🎓 Texnikum o'qituvchisi", "📄 Maqola", "Fotosintez")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := g.Generate(ctx, "🎓 Texnikum o'qituvchisi", "📄 Maqola", "Fotosintez")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first != second {
		t.Error("expected identical output for identical selections")
	}
}

func TestTemplateCanceledContext(t *testing.T) {
	g := NewTemplateGenerator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Generate(ctx, "🏫 Maktab o'qituvchisi", "🧪 Test", "Kasrlar"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

// Package dialog drives the three-step selection wizard and orchestrates
// the generation flow once a topic arrives.
package dialog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Samandar0813/darsbot/internal/generate"
	"github.com/Samandar0813/darsbot/internal/metrics"
	"github.com/Samandar0813/darsbot/internal/quota"
	"github.com/Samandar0813/darsbot/internal/render"
	"github.com/rs/zerolog"
)

// Degrees are the educator-level labels offered at the first step.
// Matched verbatim; anything else is ignored.
var Degrees = []string{
	"🏫 Maktab o'qituvchisi",
	"🎓 Texnikum o'qituvchisi",
	"👩‍🏫 Universitet o'qituvchisi",
}

// Tasks are the document-type labels offered at the second step.
var Tasks = []string{
	"📚 Dars ishlanma",
	"📝 Tezis",
	"📄 Maqola",
	"🧪 Test",
	render.TaskPresentation,
}

const (
	msgGreeting   = "👋 Salom! Darajani tanlang:"
	msgChooseTask = "📌 Vazifani tanlang:"
	msgAskTopic   = "✏️ Mavzuni yozing:"
	msgQuotaOver  = "❌ Limit tugadi. Obuna oling."
	msgFailure    = "⚠️ Xatolik yuz berdi, hujjat tayyorlanmadi. Keyinroq qayta urinib ko'ring."
	msgDone       = "✅ Tayyor"
	msgRestart    = "Yana boshlash uchun /start yuboring 👇"
)

// Reply is one outbound message. The controller stays transport-agnostic:
// the chat adapter maps replies onto its own send primitives.
type Reply struct {
	Text           string
	Keyboard       [][]string // one button row per inner slice
	RemoveKeyboard bool
	Document       *render.Artifact
	Caption        string
}

// Config holds controller configuration
type Config struct {
	AdminUserID     int64
	ChargeOnFailure bool
}

// Controller routes incoming messages through the conversation state
// machine.
type Controller struct {
	sessions  *Manager
	ledger    *quota.Ledger
	generator generate.Generator
	renderer  render.Renderer
	config    Config
	logger    zerolog.Logger
}

// NewController creates a dialogue controller.
func NewController(
	sessions *Manager,
	ledger *quota.Ledger,
	generator generate.Generator,
	renderer render.Renderer,
	config Config,
	logger zerolog.Logger,
) *Controller {
	return &Controller{
		sessions:  sessions,
		ledger:    ledger,
		generator: generator,
		renderer:  renderer,
		config:    config,
		logger:    logger.With().Str("component", "dialog").Logger(),
	}
}

// Handle processes one incoming message and returns the replies to send.
// An empty result means the message was dropped, which is the designed
// outcome for input that does not match the current state.
func (c *Controller) Handle(ctx context.Context, userID int64, text string) []Reply {
	text = strings.TrimSpace(text)

	if text == "/start" {
		c.sessions.Start(userID)
		return []Reply{{Text: msgGreeting, Keyboard: keyboard(Degrees)}}
	}

	if text == "/stats" && userID == c.config.AdminUserID && c.config.AdminUserID != 0 {
		return c.adminReport(ctx)
	}

	sess := c.sessions.Get(userID)
	if sess == nil {
		return nil
	}

	switch sess.State {
	case StateDegree:
		if !contains(Degrees, text) {
			return nil
		}
		sess.Degree = text
		sess.State = StateTask
		c.sessions.Touch(userID)
		return []Reply{{Text: msgChooseTask, Keyboard: keyboard(Tasks)}}

	case StateTask:
		if !contains(Tasks, text) {
			return nil
		}
		sess.Task = text
		sess.State = StateTopic
		c.sessions.Touch(userID)
		return []Reply{{Text: msgAskTopic, RemoveKeyboard: true}}

	case StateTopic:
		// Topic content is accepted unconditionally.
		return c.runGeneration(ctx, userID, sess, text)
	}

	return nil
}

// runGeneration executes the terminal step: quota gate, text generation,
// rendering, delivery, quota charge. The session is consumed whatever
// the outcome.
func (c *Controller) runGeneration(ctx context.Context, userID int64, sess *Session, topic string) []Reply {
	defer c.sessions.Drop(userID)

	uid := strconv.FormatInt(userID, 10)
	log := c.logger.With().
		Str("user_id", uid).
		Str("degree", sess.Degree).
		Str("task", sess.Task).
		Logger()

	allowed, err := c.ledger.MayUse(ctx, uid)
	if err != nil {
		log.Error().Err(err).Msg("Quota check failed")
		return []Reply{{Text: msgFailure}, {Text: msgRestart}}
	}
	if !allowed {
		log.Info().Msg("Generation denied by quota")
		return []Reply{{Text: msgQuotaOver}, {Text: msgRestart}}
	}

	start := time.Now()
	body, err := c.generator.Generate(ctx, sess.Degree, sess.Task, topic)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).Msg("Text generation failed")
		return c.failTurn(ctx, uid, sess.Task)
	}

	artifact, err := c.renderer.Render(sess.Task, topic, body)
	if err != nil {
		log.Error().Err(err).Msg("Document rendering failed")
		return c.failTurn(ctx, uid, sess.Task)
	}

	if err := c.ledger.RecordUse(ctx, uid); err != nil {
		// The document was produced; deliver it and surface only a log.
		log.Error().Err(err).Msg("Failed to record quota use")
	}

	metrics.GenerationsTotal.WithLabelValues(sess.Task, "success").Inc()
	log.Info().Str("artifact", artifact.Name).Msg("Document delivered")

	return []Reply{
		{Document: artifact, Caption: msgDone},
		{Text: msgRestart},
	}
}

// failTurn reports a transient failure to the user. The quota credit is
// kept unless charge-on-failure is configured.
func (c *Controller) failTurn(ctx context.Context, uid, task string) []Reply {
	metrics.GenerationsTotal.WithLabelValues(task, "failure").Inc()
	if c.config.ChargeOnFailure {
		if err := c.ledger.RecordUse(ctx, uid); err != nil {
			c.logger.Error().Err(err).Str("user_id", uid).Msg("Failed to record quota use")
		}
	}
	return []Reply{{Text: msgFailure}, {Text: msgRestart}}
}

// adminReport dumps every usage record, one user per line.
func (c *Controller) adminReport(ctx context.Context) []Reply {
	records, err := c.ledger.Snapshot(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to read usage snapshot")
		return []Reply{{Text: msgFailure}}
	}

	var b strings.Builder
	b.WriteString("Admin panel\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "%s → %d\n", rec.UserID, rec.Count)
	}
	return []Reply{{Text: b.String()}}
}

func keyboard(labels []string) [][]string {
	rows := make([][]string, len(labels))
	for i, label := range labels {
		rows[i] = []string{label}
	}
	return rows
}

func contains(labels []string, text string) bool {
	for _, label := range labels {
		if label == text {
			return true
		}
	}
	return false
}

package drafting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/inbox-assist/internal/errors"
)

// Drafter drafts replies with a Generator.
type Drafter struct {
	generator Generator
	timeout   time.Duration
}

func NewDrafter(generator Generator, timeout time.Duration) *Drafter {
	return &Drafter{generator: generator, timeout: timeout}
}

// Draft generates and parses a reply. Output that is empty after trimming fails
// with errors.ErrReplyGenerationEmpty.
func (d *Drafter) Draft(ctx context.Context, req Request) (Draft, Settings, error) {
	settings := req.Settings.Normalise()
	req.Settings = settings

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := d.generator.Generate(ctx, BuildPrompt(req))
	if err != nil {
		return Draft{}, settings, fmt.Errorf("generating reply: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return Draft{}, settings, errors.ErrReplyGenerationEmpty
	}

	log.Debug().Dur("took", time.Since(start)).Str("tone", settings.Tone).Msg("reply generated")
	return ParseDraft(text), settings, nil
}

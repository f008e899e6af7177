// Package extract turns free-text backstories into ordered, atomic claims
// via a single deliberation-model call.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/canoncourt/canoncourt/internal/model"
)

// ErrExtractionFailed means no claims could be recovered from the model even
// after a strict reformulation. Fatal for the backstory: without claims
// there is no basis for a decision.
var ErrExtractionFailed = errors.New("claim extraction failed")

// noClaimsMarker lets the model signal a backstory with nothing checkable,
// distinguishing "zero claims" from "unparseable response"
const noClaimsMarker = "NONE"

// Invoker issues one prompt to the model routed for a stage.
// *gateway.Gateway satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, stage model.Stage, prompt string) (string, error)
}

// ClaimExtractor decomposes a backstory into atomic, independently
// verifiable claims
type ClaimExtractor struct {
	gw        Invoker
	maxClaims int
}

// NewClaimExtractor creates a claim extractor
func NewClaimExtractor(gw Invoker, maxClaims int) *ClaimExtractor {
	if maxClaims <= 0 {
		maxClaims = 10
	}
	return &ClaimExtractor{gw: gw, maxClaims: maxClaims}
}

// Extract returns the backstory's claims in extraction order. An empty
// result is a valid terminal outcome, not an error. A malformed response is
// retried once with a stricter reformulation before failing.
func (e *ClaimExtractor) Extract(ctx context.Context, backstory string) ([]model.Claim, error) {
	resp, err := e.gw.Invoke(ctx, model.StageClaimExtraction, buildExtractionPrompt(backstory, e.maxClaims))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	claims, ok := parseClaims(resp, backstory, e.maxClaims)
	if ok {
		return claims, nil
	}

	// One retry with a format-constrained reformulation
	resp, err = e.gw.Invoke(ctx, model.StageClaimExtraction, buildStrictExtractionPrompt(backstory, e.maxClaims))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	claims, ok = parseClaims(resp, backstory, e.maxClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unparseable response after strict retry", ErrExtractionFailed)
	}
	return claims, nil
}

func buildExtractionPrompt(backstory string, maxClaims int) string {
	return fmt.Sprintf(`Extract atomic claims from this character backstory. Each claim should be:
- A single verifiable statement
- Specific enough to check against evidence
- Free of compound statements

BACKSTORY:
%s

OUTPUT FORMAT:
Return ONLY a numbered list of claims, one per line:
1. [First claim]
2. [Second claim]
...

If the backstory contains no checkable factual assertions, return the single word %s.
Limit to the %d most important claims.`, backstory, noClaimsMarker, maxClaims)
}

func buildStrictExtractionPrompt(backstory string, maxClaims int) string {
	return fmt.Sprintf(`Decompose the backstory below into factual claims.

BACKSTORY:
%s

Respond with NOTHING except one of:
- A numbered list, at most %d lines, each line exactly "N. claim text"
- The single word %s if there are no checkable factual assertions

No preamble, no commentary, no blank lines between items.`, backstory, maxClaims, noClaimsMarker)
}

// parseClaims pulls numbered or bulleted claim lines from a model response.
// The second return value reports whether the response was parseable at all:
// a recognized no-claims marker is parseable with zero claims.
func parseClaims(resp, backstory string, maxClaims int) ([]model.Claim, bool) {
	trimmed := strings.TrimSpace(resp)
	if trimmed == "" {
		return nil, false
	}
	if strings.EqualFold(trimmed, noClaimsMarker) || strings.EqualFold(trimmed, noClaimsMarker+".") {
		return nil, true
	}

	var claims []model.Claim
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		text, ok := stripListPrefix(line)
		if !ok || text == "" {
			continue
		}

		claims = append(claims, model.Claim{
			ID:   fmt.Sprintf("c%d", len(claims)+1),
			Text: text,
			Span: locateSpan(backstory, text),
		})
		if len(claims) == maxClaims {
			break
		}
	}

	if len(claims) == 0 {
		return nil, false
	}
	return claims, true
}

// stripListPrefix removes "1.", "2)", "-", "•" style prefixes
func stripListPrefix(line string) (string, bool) {
	switch {
	case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "•"), strings.HasPrefix(line, "*"):
		return strings.TrimSpace(strings.TrimLeft(line, "-•* ")), true
	}

	// Numbered form: digits followed by '.' or ')'
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return "", false
	}
	if line[i] != '.' && line[i] != ')' {
		return "", false
	}
	return strings.TrimSpace(line[i+1:]), true
}

// locateSpan finds the claim verbatim in the backstory, best effort. Claims
// are usually paraphrased, so a zero span is common and fine.
func locateSpan(backstory, claim string) model.Span {
	idx := strings.Index(strings.ToLower(backstory), strings.ToLower(claim))
	if idx < 0 {
		return model.Span{}
	}
	return model.Span{Start: idx, End: idx + len(claim)}
}

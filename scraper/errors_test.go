package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/variantsync/models"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), models.ErrCodeTimeout},
		{"canceled", context.Canceled, models.ErrCodeCanceled},
		{"not found", &rod.ElementNotFoundError{}, models.ErrCodeElementNotFound},
		{"other", errors.New("net::ERR_CONNECTION_RESET"), models.ErrCodeNavigation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := categorizeError(tt.err, "op failed")
			if got.Code != tt.want {
				t.Errorf("code = %s, want %s", got.Code, tt.want)
			}
			if got.Message != "op failed" {
				t.Errorf("message = %q, want the caller's message", got.Message)
			}
			if !errors.Is(got, tt.err) {
				t.Error("categorized error does not wrap the original")
			}
		})
	}
}

func TestBlockedTypes(t *testing.T) {
	got := blockedTypes([]string{"Font", "Media", "Script", "Bogus"})
	if len(got) != 2 {
		t.Fatalf("blockedTypes() = %v, want Font and Media only", got)
	}
	if _, ok := got[proto.NetworkResourceTypeFont]; !ok {
		t.Error("Font not blocked")
	}
	if len(blockedTypes(nil)) != 0 {
		t.Error("nil names should block nothing")
	}
}

package myrecipes

import (
	"errors"
	"testing"

	"recipe-box/internal/core/recipe"
	"recipe-box/internal/pkg/common"
)

func TestOptionsReturnsCopies(t *testing.T) {
	firstCategory := recipe.Categories[0]
	firstDifficulty := recipe.Difficulties[0]

	opts := Options()
	opts.Categories[0] = "Tampered"
	opts.Difficulties[0] = "Tampered"

	if recipe.Categories[0] != firstCategory {
		t.Fatalf("expected categories untouched, got %q", recipe.Categories[0])
	}
	if recipe.Difficulties[0] != firstDifficulty {
		t.Fatalf("expected difficulties untouched, got %q", recipe.Difficulties[0])
	}
	if again := Options(); again.Categories[0] != firstCategory {
		t.Fatalf("expected fresh copy, got %q", again.Categories[0])
	}
}

func TestDegradedWarning(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"corrupt", common.ErrCorruptData.Wrap(errors.New("bad json")), common.ErrCodeCorruptData},
		{"read", common.ErrStorageRead.Wrap(errors.New("disk offline")), common.ErrCodeStorageRead},
		{"write", common.ErrStorageWrite.Wrap(errors.New("disk full")), ""},
		{"other", errors.New("boom"), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := degradedWarning(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

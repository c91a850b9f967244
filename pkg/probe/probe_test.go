package probe

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRun_AllPass(t *testing.T) {
	var ran []string
	checks := []Check{
		{Name: "first", Vital: true, Fn: func(ctx context.Context) error {
			ran = append(ran, "first")
			return nil
		}},
		{Name: "second", Fn: func(ctx context.Context) error {
			ran = append(ran, "second")
			return nil
		}},
	}

	if err := Run(context.Background(), checks); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if len(ran) != 2 || ran[0] != "first" || ran[1] != "second" {
		t.Errorf("checks should run in order: %v", ran)
	}
}

func TestRun_VitalFailureAborts(t *testing.T) {
	checks := []Check{
		{Name: "tts api", Vital: true, Fn: func(ctx context.Context) error {
			return errors.New("401 unauthorized")
		}},
	}

	err := Run(context.Background(), checks)
	if err == nil {
		t.Fatal("vital failure should surface")
	}
	if !strings.Contains(err.Error(), "tts api") {
		t.Errorf("error should name the failed check: %v", err)
	}
}

func TestRun_NonVitalFailureTolerated(t *testing.T) {
	var secondRan bool
	checks := []Check{
		{Name: "optional", Fn: func(ctx context.Context) error {
			return errors.New("unreachable")
		}},
		{Name: "after", Vital: true, Fn: func(ctx context.Context) error {
			secondRan = true
			return nil
		}},
	}

	if err := Run(context.Background(), checks); err != nil {
		t.Errorf("non-vital failure should not surface, got %v", err)
	}
	if !secondRan {
		t.Error("later checks should still run")
	}
}

func TestRun_ChecksGetBoundedContext(t *testing.T) {
	checks := []Check{
		{Name: "deadline", Vital: true, Fn: func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline set")
			}
			return nil
		}},
	}

	if err := Run(context.Background(), checks); err != nil {
		t.Errorf("each check should get a bounded context: %v", err)
	}
}

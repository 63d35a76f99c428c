package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestCatalogCreateAssignsIDsAndDefaults(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalog()
	service := app.NewCatalogService(catalog, memory.NewQuizRepository(catalog, time.Minute))

	created, err := service.Create(ctx, domain.Quiz{
		Title:   " Kinematics ",
		Subject: "Physics",
		Questions: []domain.Question{
			{Statement: "s = ?", Options: []domain.Option{{Label: "ut + at^2/2", Correct: true}, {Label: "u/t"}}},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Questions[0].ID == "" || created.Questions[0].Options[0].ID == "" {
		t.Fatalf("expected generated ids, got %+v", created)
	}
	if created.Title != "Kinematics" || created.DurationMinutes != app.DefaultDurationMinutes {
		t.Fatalf("unexpected defaults %+v", created)
	}

	public, err := service.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(public.Questions) != 1 || len(public.Questions[0].Options) != 2 {
		t.Fatalf("unexpected public view %+v", public)
	}

	list, _ := service.List(ctx)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("expected created quiz listed, got %+v", list)
	}
}

func TestCatalogCreateValidation(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalog()
	service := app.NewCatalogService(catalog, memory.NewQuizRepository(catalog, time.Minute))

	cases := []domain.Quiz{
		{Subject: "Physics"},
		{Title: "Kinematics"},
		{Title: "Kinematics", Subject: "Physics", NegativeMarking: -1},
		{Title: "Kinematics", Subject: "Physics", Questions: []domain.Question{{Statement: "no options"}}},
	}
	for i, draft := range cases {
		if _, err := service.Create(ctx, draft); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("case %d: expected invalid input, got %v", i, err)
		}
	}
}

func TestSeedIfEmptyOnlySeedsOnce(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalog()
	service := app.NewCatalogService(catalog, memory.NewQuizRepository(catalog, time.Minute))
	seed := domain.Quiz{Title: "Seed", Subject: "Demo", Questions: []domain.Question{
		{Statement: "?", Options: []domain.Option{{Label: "a", Correct: true}}},
	}}

	if err := service.SeedIfEmpty(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := service.SeedIfEmpty(ctx, seed); err != nil {
		t.Fatalf("seed again: %v", err)
	}
	list, _ := service.List(ctx)
	if len(list) != 1 {
		t.Fatalf("expected a single seeded quiz, got %d", len(list))
	}
}

package cli

import "quiz-attempt-service/internal/domain"

// sampleQuizzes is seeded when the catalog is empty. Ids are assigned on creation.
func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			Title:           "JEE Physics: Kinematics Basics",
			Subject:         "Physics",
			DurationMinutes: 10,
			NegativeMarking: 0,
			Questions: []domain.Question{
				{
					Statement: "A particle moves with constant acceleration a. If its initial velocity is u, what is the displacement in time t?",
					Options: []domain.Option{
						{Label: "s = ut + 1/2 at^2", Correct: true},
						{Label: "s = u/t + at"},
						{Label: "s = u^2 + 2as"},
						{Label: "s = ut^2 + 1/2 a t"},
					},
				},
				{
					Statement: "For projectile motion with speed u and angle θ, time of flight (neglecting air resistance) is?",
					Options: []domain.Option{
						{Label: "T = 2u sinθ / g", Correct: true},
						{Label: "T = u cosθ / g"},
						{Label: "T = u / (g sinθ)"},
						{Label: "T = 2u / (g cosθ)"},
					},
				},
			},
		},
	}
}

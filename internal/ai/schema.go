package ai

import "github.com/gitgauge/gitgauge/internal/interfaces"

// analysisSchema is the response-shape contract for repository assessments.
// The provider is constrained to this shape; the decoded result is still
// validated before being trusted.
func analysisSchema() *interfaces.ResponseSchema {
	str := func(desc string) interfaces.SchemaProperty {
		return interfaces.SchemaProperty{Type: "string", Description: desc}
	}
	strList := func(desc string) interfaces.SchemaProperty {
		return interfaces.SchemaProperty{
			Type:        "array",
			Description: desc,
			Items:       &interfaces.SchemaProperty{Type: "string"},
		}
	}

	return &interfaces.ResponseSchema{
		Type: "object",
		Properties: map[string]interfaces.SchemaProperty{
			"description": str("Concise technical description of the project"),
			"techStack":   strList("Technologies used, most significant first"),
			"categorizedTechStack": {
				Type:        "object",
				Description: "Technologies grouped by category name",
			},
			"skillLevel": {
				Type: "string",
				Enum: []string{"Beginner", "Junior", "Mid-level", "Senior"},
			},
			"repositoryInfo": {
				Type: "object",
				Properties: map[string]interfaces.SchemaProperty{
					"teamSize":          str("Estimated team size"),
					"estimatedDuration": str("Estimated build duration"),
					"complexity":        str("Complexity estimate"),
				},
			},
			"detailedAssessment": {
				Type: "object",
				Properties: map[string]interfaces.SchemaProperty{
					"reasoning":       str("Reasoning behind the rating"),
					"strengths":       strList("Notable strengths"),
					"weaknesses":      strList("Notable weaknesses"),
					"recommendations": strList("Concrete improvement suggestions"),
					"qualityRatings": {
						Type:        "object",
						Description: "Per-dimension 1-10 ratings",
					},
				},
			},
		},
		Required: []string{"description", "techStack", "skillLevel"},
	}
}

// timelineSchema is the response-shape contract for milestone condensation.
func timelineSchema() *interfaces.ResponseSchema {
	return &interfaces.ResponseSchema{
		Type: "array",
		Items: &interfaces.SchemaProperty{
			Type: "object",
			Properties: map[string]interfaces.SchemaProperty{
				"date":        {Type: "string", Description: "Event date, YYYY-MM-DD"},
				"title":       {Type: "string"},
				"description": {Type: "string"},
				"type": {
					Type: "string",
					Enum: []string{"feature", "refactor", "architecture", "release", "milestone"},
				},
				"relatedCommits": {
					Type:  "array",
					Items: &interfaces.SchemaProperty{Type: "string"},
				},
			},
			Required: []string{"date", "title", "type"},
		},
	}
}

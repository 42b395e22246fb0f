package palette

import "github.com/gyaneshwarpardhi/surveyflow/internal/survey"

func multipleChoice() Template {
	return Template{
		Type:  survey.MultipleChoice,
		Label: "Multiple choice",
		New: func(id string) survey.Question {
			return survey.Question{
				QuestionID:   id,
				Title:        "Multiple choice question",
				QuestionType: survey.MultipleChoice,
				PromptType:   survey.TextPrompt,
				Prompt:       "Enter your question.",
				Importance:   survey.ImportanceMedium,
				Required:     true,
				DisplayType:  survey.DisplayDefault,
				Validation:   survey.Validation{Selection: &survey.SelectionRule{MinSelections: 1, MaxSelections: 1}},
				Options: []survey.Option{
					{Value: "1", Label: "Option 1", Score: 1},
					{Value: "2", Label: "Option 2", Score: 2},
				},
			}
		},
	}
}

func textOpinion() Template {
	return Template{
		Type:  survey.TextOpinion,
		Label: "Text opinion",
		New: func(id string) survey.Question {
			return survey.Question{
				QuestionID:   id,
				Title:        "Text question",
				QuestionType: survey.TextOpinion,
				PromptType:   survey.TextPrompt,
				Prompt:       "Please share your opinion.",
				Importance:   survey.ImportanceMedium,
				Placeholder:  "Write freely.",
				Validation:   survey.Validation{Text: &survey.TextRule{MinLength: 0, MaxLength: 1000}},
			}
		},
	}
}

func voiceOpinion() Template {
	return Template{
		Type:  survey.VoiceOpinion,
		Label: "Voice opinion",
		New: func(id string) survey.Question {
			return survey.Question{
				QuestionID:   id,
				Title:        "Voice question",
				QuestionType: survey.VoiceOpinion,
				PromptType:   survey.VoicePrompt,
				Importance:   survey.ImportanceMedium,
				Audio: &survey.AudioMetadata{
					Format:           "mp3",
					MaxRecordingTime: 120,
					HasTranscript:    true,
					Transcript:       "Please tell us your opinion by voice.",
				},
				Validation: survey.Validation{Audio: &survey.AudioRule{MinDuration: 5, MaxDuration: 120}},
			}
		},
	}
}

package domain

import "strconv"

// GradeQuestion compares one submitted value against the stored answer key
// for the given question. A missing or empty submission is a plain mismatch,
// never an error. It returns ErrQuestionNotFound for an unknown question id
// and ErrNotGradable for free_text, whose answers are compared by a human.
func GradeQuestion(ex Exercise, questionID int, submitted string) (bool, error) {
	if ex.FindQuestion(questionID) == nil {
		return false, ErrQuestionNotFound
	}
	switch ex.Type {
	case TypeFreeText:
		return false, ErrNotGradable
	case TypeMultiSelect:
		// "true" means the learner flagged the proposition as good posture.
		// An unselected item whose id is not in correctIds counts as correct.
		selected := submitted == "true"
		return selected == ex.Answers.HasCorrectID(questionID), nil
	case TypeSingleChoice, TypeQCM, TypeTrueFalse, TypeLabyrinth:
		expected, ok := ex.Answers.Values[strconv.Itoa(questionID)]
		if !ok {
			return false, nil
		}
		return submitted != "" && submitted == expected, nil
	default:
		return false, ErrNotGradable
	}
}

// ScoreExercise grades every question of the exercise against the submitted
// answers and returns (correct, graded). free_text exercises are never
// counted: they contribute (0, 0).
func ScoreExercise(ex Exercise, submissions map[string]string) (correct, graded int) {
	if !ex.Type.Gradable() {
		return 0, 0
	}
	for _, q := range ex.Content.Questions {
		ok, err := GradeQuestion(ex, q.ID, submissions[strconv.Itoa(q.ID)])
		if err != nil {
			continue
		}
		graded++
		if ok {
			correct++
		}
	}
	return correct, graded
}

// LabyrinthUnlocked returns the index of the first step the learner may still
// answer: step i is unlocked only when steps 0..i-1 were all answered
// correctly. It returns len(questions) once every step is solved. Callers
// gate submissions on this before grading; a submission for a locked step
// must never reach GradeQuestion.
func LabyrinthUnlocked(ex Exercise, submissions map[string]string) int {
	for i, q := range ex.Content.Questions {
		ok, err := GradeQuestion(ex, q.ID, submissions[strconv.Itoa(q.ID)])
		if err != nil || !ok {
			return i
		}
	}
	return len(ex.Content.Questions)
}

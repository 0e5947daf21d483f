package domain

import "strconv"

// validateFunc checks one variant's content/answers pair. All six variants are
// registered in the validators table; dispatch happens only there so adding a
// variant is a localized change.
type validateFunc func(c Content, a AnswerKey) error

var validators = map[ExerciseType]validateFunc{
	TypeSingleChoice: validateSingleChoice,
	TypeQCM:          validateQCM,
	TypeMultiSelect:  validateMultiSelect,
	TypeTrueFalse:    validateTrueFalse,
	TypeFreeText:     validateFreeText,
	TypeLabyrinth:    validateLabyrinth,
}

// ValidateExercise checks a candidate (content, answers) pair against the
// variant selected by t. It rejects the whole pair on the first structural or
// referential violation; the caller must not persist anything on error.
func ValidateExercise(t ExerciseType, c Content, a AnswerKey) error {
	validate, ok := validators[t]
	if !ok {
		return Invalidf("unknown exercise type %q", t)
	}
	return validate(c, a)
}

// questionIDSet enforces the shared question rules (at least one question,
// positive unique ids, non-empty text) and returns the id set.
func questionIDSet(c Content) (map[int]struct{}, error) {
	if len(c.Questions) == 0 {
		return nil, Invalidf("at least one question is required")
	}
	ids := make(map[int]struct{}, len(c.Questions))
	for _, q := range c.Questions {
		if q.ID <= 0 {
			return nil, Invalidf("question id %d must be positive", q.ID)
		}
		if _, dup := ids[q.ID]; dup {
			return nil, Invalidf("duplicate question id %d", q.ID)
		}
		if q.Text == "" {
			return nil, Invalidf("question %d has empty text", q.ID)
		}
		ids[q.ID] = struct{}{}
	}
	return ids, nil
}

// answerKeysReferenceQuestions checks that every key of the answer map parses
// to an id present in the exercise's questions.
func answerKeysReferenceQuestions(values map[string]string, ids map[int]struct{}) error {
	for key := range values {
		id, err := strconv.Atoi(key)
		if err != nil {
			return Invalidf("answer key %q is not a question id", key)
		}
		if _, ok := ids[id]; !ok {
			return Invalidf("answer references unknown question id %d", id)
		}
	}
	return nil
}

// requireValueAnswers rejects a correctIds-shaped key for variants that expect
// a question-id -> value mapping.
func requireValueAnswers(a AnswerKey) error {
	if a.CorrectIDs != nil {
		return Invalidf("answers must map question ids to values, not correctIds")
	}
	return nil
}

func validateSingleChoice(c Content, a AnswerKey) error {
	if len(c.Options) < 2 {
		return Invalidf("single_choice requires at least 2 options")
	}
	seen := make(map[string]struct{}, len(c.Options))
	for _, opt := range c.Options {
		if opt == "" {
			return Invalidf("options must be non-empty strings")
		}
		if _, dup := seen[opt]; dup {
			return Invalidf("duplicate option %q", opt)
		}
		seen[opt] = struct{}{}
	}
	ids, err := questionIDSet(c)
	if err != nil {
		return err
	}
	if err := requireValueAnswers(a); err != nil {
		return err
	}
	if err := answerKeysReferenceQuestions(a.Values, ids); err != nil {
		return err
	}
	for key, value := range a.Values {
		if _, ok := seen[value]; !ok {
			return Invalidf("answer for question %s is not one of the options", key)
		}
	}
	return nil
}

// validateLabeledQuestions covers the per-question option rules shared by qcm
// and labyrinth: each question owns at least two options, every option has a
// non-empty label unique within its question and a non-empty text, and every
// provided answer is a label of its question's own options.
func validateLabeledQuestions(c Content, a AnswerKey) error {
	ids, err := questionIDSet(c)
	if err != nil {
		return err
	}
	labels := make(map[int]map[string]struct{}, len(c.Questions))
	for _, q := range c.Questions {
		if len(q.Options) < 2 {
			return Invalidf("question %d requires at least 2 options", q.ID)
		}
		set := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			if opt.Label == "" {
				return Invalidf("question %d has an option without a label", q.ID)
			}
			if opt.Text == "" {
				return Invalidf("question %d option %q has empty text", q.ID, opt.Label)
			}
			if _, dup := set[opt.Label]; dup {
				return Invalidf("question %d has duplicate option label %q", q.ID, opt.Label)
			}
			set[opt.Label] = struct{}{}
		}
		labels[q.ID] = set
	}
	if err := requireValueAnswers(a); err != nil {
		return err
	}
	if err := answerKeysReferenceQuestions(a.Values, ids); err != nil {
		return err
	}
	// Answers may be omitted per question, but a provided label must exist
	// among that question's own options.
	for key, label := range a.Values {
		id, _ := strconv.Atoi(key)
		if _, ok := labels[id][label]; !ok {
			return Invalidf("answer %q is not an option label of question %d", label, id)
		}
	}
	return nil
}

func validateQCM(c Content, a AnswerKey) error {
	return validateLabeledQuestions(c, a)
}

// labyrinth shares the qcm structure; it may additionally carry a free-form
// scenario instead of instruction/legend, which needs no checking.
func validateLabyrinth(c Content, a AnswerKey) error {
	return validateLabeledQuestions(c, a)
}

func validateTrueFalse(c Content, a AnswerKey) error {
	ids, err := questionIDSet(c)
	if err != nil {
		return err
	}
	if err := requireValueAnswers(a); err != nil {
		return err
	}
	if err := answerKeysReferenceQuestions(a.Values, ids); err != nil {
		return err
	}
	for key, value := range a.Values {
		if value != AnswerTrue && value != AnswerFalse {
			return Invalidf("answer for question %s must be %q or %q", key, AnswerTrue, AnswerFalse)
		}
	}
	return nil
}

func validateFreeText(c Content, a AnswerKey) error {
	ids, err := questionIDSet(c)
	if err != nil {
		return err
	}
	if len(c.Columns) > 0 {
		if len(c.Columns) != 2 {
			return Invalidf("columns must hold exactly 2 labels")
		}
		for _, col := range c.Columns {
			if col == "" {
				return Invalidf("column labels must be non-empty")
			}
		}
	}
	if err := requireValueAnswers(a); err != nil {
		return err
	}
	// Values are free-form reference strings for human comparison; only the
	// referential rule applies.
	return answerKeysReferenceQuestions(a.Values, ids)
}

func validateMultiSelect(c Content, a AnswerKey) error {
	ids, err := questionIDSet(c)
	if err != nil {
		return err
	}
	if len(a.Values) > 0 {
		return Invalidf("multi_select answers must be a correctIds list")
	}
	if len(a.CorrectIDs) == 0 {
		return Invalidf("correctIds must not be empty")
	}
	for _, id := range a.CorrectIDs {
		if id <= 0 {
			return Invalidf("correctIds entry %d must be positive", id)
		}
		if _, ok := ids[id]; !ok {
			return Invalidf("correctIds references unknown question id %d", id)
		}
	}
	return nil
}

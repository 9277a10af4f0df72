package models

// SecurityQuestion is one entry of the closed set offered at registration.
type SecurityQuestion struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var securityQuestions = []SecurityQuestion{
	{ID: "first_pet", Label: "What was the name of your first pet?"},
	{ID: "mother_maiden_name", Label: "What is your mother's maiden name?"},
	{ID: "birth_city", Label: "In what city were you born?"},
	{ID: "favorite_color", Label: "What is your favorite color?"},
	{ID: "first_school", Label: "What was the name of your first school?"},
	{ID: "favorite_book", Label: "What is your favorite book?"},
}

// SecurityQuestions returns a copy of the selectable questions in display order.
func SecurityQuestions() []SecurityQuestion {
	out := make([]SecurityQuestion, len(securityQuestions))
	copy(out, securityQuestions)
	return out
}

// LookupSecurityQuestion reports whether id names a known question.
func LookupSecurityQuestion(id string) (SecurityQuestion, bool) {
	for _, q := range securityQuestions {
		if q.ID == id {
			return q, true
		}
	}
	return SecurityQuestion{}, false
}

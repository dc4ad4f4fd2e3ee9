package validate

import (
	"fmt"
	"regexp"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserID must be lowercase letters, digits, underscore, 1-20 chars
var userIdRx = regexp.MustCompile(`^[a-z0-9_]{1,20}$`)

// titleRx allows ASCII letters, digits, space, hyphen and underscore.
var titleRx = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _\-]*$`)

const (
	maxTitleLen    = 120
	maxQuestionLen = 4000
)

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required")
	}
	if !userIdRx.MatchString(v) {
		return fmt.Errorf("userId must match %s", userIdRx.String())
	}
	return nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// -------- Request specific helpers ----------

// CreateUser validates input for creating a new user. UserID is mandatory.
func CreateUser(userId, email string, displayName *string) error {
	if err := UserID(userId); err != nil {
		return err
	}
	if err := Email(email); err != nil {
		return err
	}
	return MaxLen("displayName", displayName, 100)
}

// UploadContract validates the title and extracted text of a new contract.
func UploadContract(title, text string) error {
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if len(title) > maxTitleLen {
		return fmt.Errorf("title exceeds %d characters", maxTitleLen)
	}
	if !titleRx.MatchString(title) {
		return fmt.Errorf("title contains invalid characters; allowed letters, digits, space, hyphen, underscore")
	}
	return NonEmpty("text", text)
}

// Question validates a contract query before it reaches quota accounting.
func Question(v string) error {
	if v == "" {
		return fmt.Errorf("question is required")
	}
	if len(v) > maxQuestionLen {
		return fmt.Errorf("question exceeds %d characters", maxQuestionLen)
	}
	return nil
}

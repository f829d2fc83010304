package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  NotFound("There is no job abc viewable by user foo"),
			want: "There is no job abc viewable by user foo",
		},
		{
			name: "error with cause",
			err:  Communication(errors.New("dial tcp: refused")),
			want: CommunicationMessage + ": dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Communication(cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(Communication(cause), cause) = false")
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
		code ErrorCode
	}{
		{"validation", Validation("bad"), IsValidation, ErrCodeValidation},
		{"validation field", ValidationField("user", "bad"), IsValidation, ErrCodeValidation},
		{"not found", NotFoundf("There is no job %s", "x"), IsNotFound, ErrCodeNotFound},
		{"authorization", Authorization(errors.New("nope")), IsAuthorization, ErrCodeAuthorization},
		{"communication", Communication(errors.New("down")), IsCommunication, ErrCodeCommunication},
		{"internal", Internalf("broken %d", 1), IsInternal, ErrCodeInternal},
		{"wrapped", fmt.Errorf("get job: %w", NotFound("gone")), IsNotFound, ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.is(tt.err) {
				t.Errorf("predicate returned false for %v", tt.err)
			}
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %v, want %v", got, tt.code)
			}
		})
	}
}

func TestNilWrapping(t *testing.T) {
	if Communication(nil) != nil {
		t.Error("Communication(nil) should be nil")
	}
	if Authorization(nil) != nil {
		t.Error("Authorization(nil) should be nil")
	}
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestGetMessage(t *testing.T) {
	err := fmt.Errorf("start job: %w", Communication(errors.New("reset by peer")))
	if got := GetMessage(err); got != CommunicationMessage {
		t.Errorf("GetMessage() = %q, want %q", got, CommunicationMessage)
	}
	if got := GetMessage(errors.New("plain")); got != "plain" {
		t.Errorf("GetMessage(plain) = %q", got)
	}
}

func TestGetField(t *testing.T) {
	if got := GetField(ValidationField("service", "bad")); got != "service" {
		t.Errorf("GetField() = %q, want service", got)
	}
	if got := GetField(errors.New("plain")); got != "" {
		t.Errorf("GetField(plain) = %q, want empty", got)
	}
}

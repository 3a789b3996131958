package engine

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", &Error{Kind: ParseFailure, URL: "https://a.test/", Message: "cannot parse", Cause: cause})

	if KindOf(err) != ParseFailure {
		t.Errorf("KindOf = %v", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("Error should unwrap to its cause")
	}
	if got := err.Error(); got != "wrapped: cannot parse (https://a.test/): boom" {
		t.Errorf("Error() = %q", got)
	}
	if KindOf(errors.New("plain")) != Unknown {
		t.Error("plain errors are Unknown")
	}
	if InvalidRequest.String() != "invalid_request" || Kind(99).String() != "unknown" {
		t.Error("unexpected Kind strings")
	}
}

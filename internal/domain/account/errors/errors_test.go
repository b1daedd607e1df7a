package errors

import "testing"

func TestErrorHelpers(t *testing.T) {
	err := NewInvalidArgument("bad")
	if !IsInvalidArgument(err) {
		t.Fatal("expected invalid argument")
	}

	wrapped := WrapInternal(err, "ctx")
	if !IsInternal(wrapped) {
		t.Fatal("expected internal")
	}
}

func TestErrorKindsDistinct(t *testing.T) {
	if IsInvalidToken(WrapInternal(ErrInvalidCredentials, "sign")) {
		t.Fatal("internal wrap must not look like an invalid token")
	}
	if IsInternal(ErrInvalidToken) {
		t.Fatal("invalid token must not look internal")
	}
}

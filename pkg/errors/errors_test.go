package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "new",
			err:  New(ErrCodeDuplicatePicture, "duplicate picture %q", "root"),
			want: `DUPLICATE_PICTURE: duplicate picture "root"`,
		},
		{
			name: "wrapped",
			err:  Wrap(ErrCodeInvalidScene, errors.New("unexpected EOF"), "decode %s", "toml"),
			want: "INVALID_SCENE: decode toml: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeCache, cause, "read report")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is does not see the cause")
	}
}

func TestCodeThroughFmtWrapping(t *testing.T) {
	// The pipeline adds context with fmt.Errorf; codes must survive it.
	inner := New(ErrCodeSceneCycle, "cycle through picture %q", "a")
	err := fmt.Errorf("load scenes/loop.toml: %w", inner)

	tests := []struct {
		name string
		err  error
		code Code
		is   bool
	}{
		{"direct", inner, ErrCodeSceneCycle, true},
		{"fmt wrapped", err, ErrCodeSceneCycle, true},
		{"other code", err, ErrCodeInvalidScene, false},
		{"outer code wins", Wrap(ErrCodeInvalidScene, inner, "decode"), ErrCodeInvalidScene, true},
		{"plain", errors.New("boom"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.is {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.is)
			}
		})
	}

	if got := GetCode(err); got != ErrCodeSceneCycle {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeSceneCycle)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
	if got := GetCode(nil); got != "" {
		t.Errorf("GetCode(nil) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeUnknownPicture, `picture "root" references unknown child "x"`), `picture "root" references unknown child "x"`},
		{"coded behind fmt", fmt.Errorf("build: %w", New(ErrCodeInvalidFormat, "invalid format \"gif\"")), `invalid format "gif"`},
		{"plain", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"cycle", New(ErrCodeSceneCycle, "a -> b -> a"), 400},
		{"too complex", New(ErrCodeSceneTooComplex, "too many paths"), 400},
		{"wrapped unknown picture", Wrap(ErrCodeUnknownPicture, errors.New("x"), "y"), 400},
		{"bad format behind fmt", fmt.Errorf("invalid options: %w", New(ErrCodeInvalidFormat, "gif")), 400},
		{"missing file", New(ErrCodeFileNotFound, "scene.toml"), 404},
		{"no report", New(ErrCodeNotFound, "no report"), 404},
		{"timeout", New(ErrCodeTimeout, "slow"), 504},
		{"cache", New(ErrCodeCache, "redis down"), 500},
		{"plain", errors.New("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

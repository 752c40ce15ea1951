package sha256

import "testing"

func TestHasherHash(t *testing.T) {
	t.Parallel()

	h := New()
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got := h.Hash([]byte("hello world")); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got := h.Hash(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("unexpected empty digest %s", got)
	}
}

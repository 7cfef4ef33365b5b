package checksum

import "testing"

func TestSum(t *testing.T) {
	got := Sum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint("run.sh", "#!/bin/sh\necho hi\n")
	b := Fingerprint("run.sh", "#!/bin/sh\necho hi\n")
	if a != b {
		t.Fatalf("fingerprint not stable: %q vs %q", a, b)
	}
	if len(a) != 43 {
		t.Errorf("len = %d, want 43 (unpadded base64 of 32 bytes)", len(a))
	}
}

func TestFingerprint_NameMatters(t *testing.T) {
	if Fingerprint("a", "x") == Fingerprint("b", "x") {
		t.Error("different names should give different fingerprints")
	}
	if Fingerprint("a\nx", "") == Fingerprint("a", "x") {
		// Both hash "a\nx\n" vs "a\nx"; the trailing separator differs.
		t.Error("separator should keep name and body apart")
	}
}

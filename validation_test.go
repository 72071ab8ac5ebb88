package cryptstream

import "testing"

func TestValidateBuffer(t *testing.T) {
	if err := validateBuffer(nil, "buf", 0); err == nil {
		t.Error("expected error for nil buffer")
	}
	if err := validateBuffer([]byte{1, 2}, "buf", 4); err == nil {
		t.Error("expected error for too-small buffer")
	}
	if err := validateBuffer([]byte{1, 2, 3, 4}, "buf", 4); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateOffset(t *testing.T) {
	if err := validateOffset(-1, "offset"); err == nil {
		t.Error("expected error for negative offset")
	}
	if err := validateOffset(0, "offset"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateSize(t *testing.T) {
	if err := validateSize(-1, "size", 0, 0); err == nil {
		t.Error("expected error for negative size")
	}
	if err := validateSize(5, "size", 10, 0); err == nil {
		t.Error("expected error below minimum")
	}
	if err := validateSize(100, "size", 0, 10); err == nil {
		t.Error("expected error above maximum")
	}
	if err := validateSize(5, "size", 0, 10); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateKey(t *testing.T) {
	if err := validateKey(nil, 32); err == nil {
		t.Error("expected error for nil key")
	}
	if err := validateKey(make([]byte, 16), 32); err == nil {
		t.Error("expected error for wrong key size")
	}
	if err := validateKey(make([]byte, 32), 32); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateFilePath(t *testing.T) {
	if err := validateFilePath(""); err == nil {
		t.Error("expected error for empty path")
	}
	if err := validateFilePath("a.bin"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateReadWrite(t *testing.T) {
	if err := validateReadWrite(nil, 0); err == nil {
		t.Error("expected error for nil buffer")
	}
	if err := validateReadWrite([]byte{1}, -1); err == nil {
		t.Error("expected error for negative position")
	}
	if err := validateReadWrite([]byte{1}, 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

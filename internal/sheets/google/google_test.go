package google

import (
	"context"
	"testing"
)

func TestSheetName(t *testing.T) {
	c := &Client{sheetBase: "Příspěvky"}

	tests := []struct {
		schoolYear string
		want       string
	}{
		{"2025/26", "Příspěvky 2025-26"},
		{"2099/00", "Příspěvky 2099-00"},
	}
	for _, tt := range tests {
		if got := c.sheetName(tt.schoolYear); got != tt.want {
			t.Errorf("sheetName(%q) = %q, want %q", tt.schoolYear, got, tt.want)
		}
	}
}

func TestWriteMatrixWithoutService(t *testing.T) {
	c := &Client{}
	if err := c.WriteMatrix(context.Background(), "2025/26", nil); err == nil {
		t.Error("WriteMatrix should fail without an initialized service")
	}
}

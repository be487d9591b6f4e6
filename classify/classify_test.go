package classify

import (
	"testing"

	"github.com/use-agent/variantsync/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		category models.Category
		text     string
	}{
		{"empty", "", models.CategoryGeneric, UnknownText},
		{"whitespace only", "  \t ", models.CategoryGeneric, UnknownText},
		{"separator then silhouette", "短袖-黑色", models.CategoryStyle, "短袖"},
		{"comma qualifier stripped", "Style-Black,XL", models.CategoryStyle, "Style"},
		{"comma qualifier before separator", "上衣,XL-加绒", models.CategoryGeneric, "上衣"},
		{"full-width comma qualifier before separator", "上衣，XL-加绒", models.CategoryGeneric, "上衣"},
		{"slash separator", "上衣/XL", models.CategoryGeneric, "上衣"},
		{"full-width colon", "颜色：红色", models.CategoryGeneric, "颜色"},
		{"style marker suffix", "新款上衣", models.CategoryStyle, "新款"},
		{"silhouette word wins over color", "黑色短袖", models.CategoryStyle, "黑色短袖"},
		{"color after prefix", "上衣黑色", models.CategoryColor, "上衣"},
		{"english color after prefix", "上衣Black", models.CategoryColor, "上衣"},
		{"size after prefix", "上衣XL", models.CategorySize, "上衣"},
		{"color at start only", "黑色", models.CategoryGeneric, "黑色"},
		{"product code", "ABC123", models.CategoryGeneric, "ABC"},
		{"english word not split", "Shredded", models.CategoryGeneric, "Shredded"},
		{"plain word", "Black", models.CategoryGeneric, "Black"},
		{"leading separators skipped", "--A-B", models.CategoryGeneric, "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.label)
			if got.Category != tt.category || got.NormalizedText != tt.text {
				t.Errorf("Classify(%q) = {%s %q}, want {%s %q}",
					tt.label, got.Category, got.NormalizedText, tt.category, tt.text)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	labels := []string{"短袖-黑色", "上衣XL", "", "ABC123", "Style-Black,XL", "新款上衣"}
	for _, l := range labels {
		first := Classify(l)
		for i := 0; i < 20; i++ {
			if got := Classify(l); got != first {
				t.Fatalf("Classify(%q) changed between calls: %+v vs %+v", l, first, got)
			}
		}
	}
}

func TestClassify_FirstSeparatorWins(t *testing.T) {
	pairs := [][2]string{
		{"A-B/C", "A"},
		{"短袖-黑色/XL", "短袖"},
		{"上衣_蓝色 L", "上衣"},
	}
	for _, p := range pairs {
		if got, want := Classify(p[0]), Classify(p[1]); got != want {
			t.Errorf("Classify(%q) = %+v, want same as Classify(%q) = %+v", p[0], got, p[1], want)
		}
	}
}

func TestSharesKeyword(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"黑色短袖", "白色短袖", true},
		{"上衣XL", "裤子XL", true},
		{"Black", "black tee", true},
		{"ABC", "XYZ", false},
		{"", "黑色", false},
	}
	for _, tt := range tests {
		if got := SharesKeyword(tt.a, tt.b); got != tt.want {
			t.Errorf("SharesKeyword(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

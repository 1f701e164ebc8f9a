package classifier

import (
	"errors"
	"strings"
	"testing"

	"bookmark-organizer/internal/model"
)

func TestParseResponse(t *testing.T) {
	set := model.DefaultCategorySet()

	tests := []struct {
		name      string
		content   string
		want      model.ClassifiedBookmark
		clamped   bool
		malformed bool
	}{
		{
			name:    "canonical",
			content: "Name: GitHub\nDescription: Code hosting\nCategory: Programming\nUrl: https://github.com",
			want:    model.ClassifiedBookmark{Name: "GitHub", Description: "Code hosting", Category: "Programming", URL: "https://github.com"},
		},
		{
			name:    "whitespace and crlf",
			content: "\r\n  Name :  GitHub \r\nDescription:Code hosting\r\n\tCategory: Programming\r\nUrl: https://github.com\r\n",
			want:    model.ClassifiedBookmark{Name: "GitHub", Description: "Code hosting", Category: "Programming", URL: "https://github.com"},
		},
		{
			name:    "reordered with chatter",
			content: "Sure, here it is.\nUrl: https://github.com\nCategory: programming\nName: GitHub\nDescription: Code hosting\nThanks!",
			want:    model.ClassifiedBookmark{Name: "GitHub", Description: "Code hosting", Category: "Programming", URL: "https://github.com"},
		},
		{
			name:    "full-width colon",
			content: "Name：Figma\nDescription：Design tool\nCategory：Design\nUrl：https://figma.com",
			want:    model.ClassifiedBookmark{Name: "Figma", Description: "Design tool", Category: "Design", URL: "https://figma.com"},
		},
		{
			name:    "unknown category clamped",
			content: "Name: Blog\nDescription: Personal blog\nCategory: Blogs\nUrl: https://blog.test",
			want:    model.ClassifiedBookmark{Name: "Blog", Description: "Personal blog", Category: model.DefaultCategory, URL: "https://blog.test"},
			clamped: true,
		},
		{
			name:      "missing url",
			content:   "Name: GitHub\nDescription: Code hosting\nCategory: Programming",
			malformed: true,
		},
		{
			name:      "empty description",
			content:   "Name: GitHub\nDescription:   \nCategory: Programming\nUrl: https://github.com",
			malformed: true,
		},
		{
			name:      "empty",
			content:   "",
			malformed: true,
		},
		{
			name:      "label not at line start",
			content:   "The Name: GitHub\nDescription: x\nCategory: AI\nUrl: https://a.test",
			malformed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped, err := ParseResponse(tt.content, set)
			if tt.malformed {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Fatalf("expected ErrMalformedResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if clamped != tt.clamped {
				t.Errorf("clamped = %v, want %v", clamped, tt.clamped)
			}
		})
	}
}

func FuzzParseResponse(f *testing.F) {
	f.Add("Name: GitHub\nDescription: Code hosting\nCategory: Programming\nUrl: https://github.com")
	f.Add("Name: GitHub\nDescription: Code hosting\nCategory: Programming")
	f.Add("Url: x\nCategory: Nope\nName: y\nDescription: z")
	f.Add("Name：a\nDescription：b\nCategory：AI\nUrl：c")
	f.Add("  name : a \n\n DESCRIPTION: b\ncategory:vpn\nURL: c\n")

	set := model.DefaultCategorySet()

	f.Fuzz(func(t *testing.T, content string) {
		item, _, err := ParseResponse(content, set)
		if err != nil {
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("unexpected error type: %v", err)
			}
			return
		}

		if item.Name == "" || item.Description == "" || item.URL == "" {
			t.Fatalf("empty field in parsed item %+v", item)
		}
		if !set.Contains(item.Category) {
			t.Fatalf("category %q escaped the category set", item.Category)
		}
		if strings.ContainsAny(item.Name+item.Description+item.URL, "\n") {
			t.Fatalf("field spans lines: %+v", item)
		}
	})
}

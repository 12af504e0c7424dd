package pipeline

import (
	"strings"
	"testing"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/jobs"
)

func TestDecodeFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    candidate.Fields
		wantErr bool
	}{
		{
			name: "plain object",
			raw:  `{"name": " Ann Lee ", "email": "ann@example.com", "skills": "Python, SQL"}`,
			want: candidate.Fields{Name: "Ann Lee", Email: "ann@example.com", Skills: "Python, SQL"},
		},
		{
			name: "fenced with chatter",
			raw:  "```json\nHere you go: {\"name\": \"Bob\", \"experience\": \"3 years\"}\n```",
			want: candidate.Fields{Name: "Bob", Experience: "3 years"},
		},
		{
			name: "numbers and lists",
			raw:  `{"cgpa": 8.5, "percentage_10th": 92, "passed_out_year": 2021, "skills": ["Go", " ", "Kubernetes"]}`,
			want: candidate.Fields{CGPA: "8.5", Percentage10th: "92", PassedOutYear: "2021", Skills: "Go, Kubernetes"},
		},
		{
			name: "nulls and unknown keys",
			raw:  `{"name": "Cid", "phone": null, "hobbies": "chess"}`,
			want: candidate.Fields{Name: "Cid"},
		},
		{
			name:    "no json",
			raw:     "I could not read the resume.",
			wantErr: true,
		},
		{
			name:    "broken json",
			raw:     `{"name": "Dan",}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFields(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestNormalizeFileName(t *testing.T) {
	tests := map[string]string{
		"resume.txt":          "resume.txt",
		"  docs/resume.txt  ": "resume.txt",
		"../../etc/passwd":    "passwd",
		`C:\Users\ann\cv.txt`: "cv.txt",
		"/":                   "",
		".":                   "",
		"..":                  "",
		"":                    "",
		"dir/":                "dir",
	}

	for in, want := range tests {
		if got := NormalizeFileName(in); got != want {
			t.Errorf("NormalizeFileName(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestClassifierInstruction(t *testing.T) {
	profiles, err := jobs.NewProfiles(
		&jobs.Profile{Role: "Data Analyst", Skills: []string{"SQL", "Excel"}},
		&jobs.Profile{Role: "Intern"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := ClassifierInstruction(profiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"- Data Analyst: Requires skills in sql, excel.",
		"- Intern:\n",
		"- Unclassified: If no role matches.",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("instruction misses %q:\n%s", want, got)
		}
	}
}

func TestResumeSummary(t *testing.T) {
	got := ResumeSummary(candidate.Fields{Name: "Ann Lee", Skills: "SQL"})
	want := "Name: Ann Lee\nSkills: SQL\nExperience: None\nEducation: None\nCertifications: None\nInternships: None"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	if got := ResumeSummary(candidate.Fields{}); !strings.HasPrefix(got, "Name: Unknown\n") {
		t.Fatalf("unexpected summary for empty fields %q", got)
	}
}

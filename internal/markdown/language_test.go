package markdown

import "testing"

func TestInferLanguageRust(t *testing.T) {
	code := `pub fn main() {
    let mut count = 0;
    println!("{}", count);
}`
	if got := inferLanguage(code); got != "rust" {
		t.Fatalf("expected rust, got %q", got)
	}
}

func TestInferLanguagePython(t *testing.T) {
	code := `def greet(name):
    if __name__ == "__main__":
        print(greet("world"))`
	if got := inferLanguage(code); got != "python" {
		t.Fatalf("expected python, got %q", got)
	}
}

func TestInferLanguageGo(t *testing.T) {
	code := `package main

func (s *Server) Handle() {
	v, err := s.fetch()
	if err != nil {
		return
	}
}`
	if got := inferLanguage(code); got != "go" {
		t.Fatalf("expected go, got %q", got)
	}
}

func TestInferLanguageUnknownReturnsEmpty(t *testing.T) {
	if got := inferLanguage("just some plain text with no code signals"); got != "" {
		t.Fatalf("expected empty language for plain prose, got %q", got)
	}
}

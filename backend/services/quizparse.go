package services

import (
	"regexp"
	"strings"
)

// ParsedQuestion is the normalized output of every quiz-ingestion path: CSV rows,
// PDF heuristics and AI generation all reduce to this shape.
type ParsedQuestion struct {
	Text          string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectOption string
	Order         int
}

var (
	questionMarkerRe = regexp.MustCompile(`\d+\.\s+`)
	optionLineRe     = regexp.MustCompile(`(?i)^([A-D])[.)]\s*(.*)$`)
	answerLineRe     = regexp.MustCompile(`(?i)(?:answer|correct)[:\s]+([A-D])`)
)

// NormalizeCorrectOption uppercases the answer letter and defaults anything
// outside A-D to "A".
func NormalizeCorrectOption(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "A", "B", "C", "D":
		return s
	}
	return "A"
}

// ParseCSVQuestions turns header-mapped CSV rows into questions. Expected columns:
// question, option_a, option_b, option_c, option_d, correct_answer. Rows missing the
// question text or options A/B are skipped; the batch always continues. Order carries
// the 1-based row position so repeated imports stay collision-free once the caller
// offsets by the quiz's current maximum.
func ParseCSVQuestions(rows []map[string]string) []ParsedQuestion {
	var questions []ParsedQuestion

	for i, row := range rows {
		text := strings.TrimSpace(row["question"])
		if text == "" {
			continue
		}

		optionA := strings.TrimSpace(row["option_a"])
		optionB := strings.TrimSpace(row["option_b"])
		if optionA == "" || optionB == "" {
			continue
		}

		questions = append(questions, ParsedQuestion{
			Text:          text,
			OptionA:       optionA,
			OptionB:       optionB,
			OptionC:       strings.TrimSpace(row["option_c"]),
			OptionD:       strings.TrimSpace(row["option_d"]),
			CorrectOption: NormalizeCorrectOption(row["correct_answer"]),
			Order:         i + 1,
		})
	}

	return questions
}

// ParsePDFQuestions runs a best-effort heuristic over free PDF text. Question blocks
// start at a leading integer followed by '.' and run to the next such marker. False
// negatives and the odd malformed extraction are expected; a bad block is dropped,
// never fatal.
func ParsePDFQuestions(text string) []ParsedQuestion {
	markers := questionMarkerRe.FindAllStringIndex(text, -1)

	var questions []ParsedQuestion
	for i, marker := range markers {
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		block := text[marker[0]:end]

		q, ok := parseQuestionBlock(block)
		if !ok {
			continue
		}
		q.Order = i + 1
		questions = append(questions, q)
	}

	return questions
}

func parseQuestionBlock(block string) (ParsedQuestion, bool) {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	// Need at least a question plus two options.
	if len(lines) < 3 {
		return ParsedQuestion{}, false
	}

	text := strings.TrimSpace(strings.TrimLeft(lines[0], "0123456789. "))
	if text == "" {
		return ParsedQuestion{}, false
	}

	// Options accumulate continuation lines until the next option marker.
	options := map[string]string{}
	currentOption := ""
	var optionText []string

	for _, line := range lines[1:] {
		if m := optionLineRe.FindStringSubmatch(line); m != nil {
			if currentOption != "" {
				options[currentOption] = strings.TrimSpace(strings.Join(optionText, " "))
			}
			currentOption = strings.ToUpper(m[1])
			optionText = []string{m[2]}
		} else if currentOption != "" {
			optionText = append(optionText, line)
		}
	}
	if currentOption != "" {
		options[currentOption] = strings.TrimSpace(strings.Join(optionText, " "))
	}

	if _, ok := options["A"]; !ok {
		return ParsedQuestion{}, false
	}
	if _, ok := options["B"]; !ok {
		return ParsedQuestion{}, false
	}

	correct := "A"
	for _, line := range lines {
		if m := answerLineRe.FindStringSubmatch(line); m != nil {
			correct = strings.ToUpper(m[1])
			break
		}
	}

	return ParsedQuestion{
		Text:          text,
		OptionA:       options["A"],
		OptionB:       options["B"],
		OptionC:       options["C"],
		OptionD:       options["D"],
		CorrectOption: NormalizeCorrectOption(correct),
	}, true
}

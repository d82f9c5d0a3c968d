package structured

import (
	"strings"
	"unicode"

	json "github.com/goccy/go-json"
)

// literalToJSON 把 Python 字面量风格的文本（单引号字符串、None/True/False）
// 改写为 JSON。遇到无法识别的标识符时返回 false。
func literalToJSON(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\'' || r == '"':
			str, next, ok := readQuoted(runes, i)
			if !ok {
				return "", false
			}
			enc, err := json.Marshal(str)
			if err != nil {
				return "", false
			}
			b.Write(enc)
			i = next
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			switch string(runes[i:j]) {
			case "None":
				b.WriteString("null")
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			default:
				return "", false
			}
			i = j
		default:
			b.WriteRune(r)
			i++
		}
	}
	return b.String(), true
}

// readQuoted 读取从 start 开始的带引号字符串，返回解码后的内容与结束位置之后的下标。
func readQuoted(runes []rune, start int) (string, int, bool) {
	quote := runes[start]
	var b strings.Builder
	for i := start + 1; i < len(runes); i++ {
		r := runes[i]
		if r == quote {
			return b.String(), i + 1, true
		}
		if r != '\\' {
			b.WriteRune(r)
			continue
		}
		i++
		if i >= len(runes) {
			return "", 0, false
		}
		switch esc := runes[i]; esc {
		case 'n':
			b.WriteRune('\n')
		case 't':
			b.WriteRune('\t')
		case 'r':
			b.WriteRune('\r')
		case '\\', '\'', '"':
			b.WriteRune(esc)
		default:
			b.WriteRune('\\')
			b.WriteRune(esc)
		}
	}
	return "", 0, false
}

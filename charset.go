package zcrack

// ParseCharset expands a charset expression into the sorted, deduped
// set of bytes it denotes, restoring the DSL the reference tool's
// argument parser offers for password recovery (spec.md's distillation
// dropped it, leaving RecoverPassword's charset parameter with no
// ergonomic construction path for callers).
//
// Besides literal characters, "?" introduces one of the predefined
// classes: l lowercase, u uppercase, d digits, a alphanumeric,
// s punctuation, p printable, b every byte, or "??" for a literal "?".
func ParseCharset(expr string) ([]byte, error) {
	if expr == "" {
		return nil, NewArgumentError("charset", expr, "must not be empty")
	}

	var set [256]bool
	runes := []byte(expr)

	for i := 0; i < len(runes); i++ {
		if runes[i] != '?' {
			set[runes[i]] = true
			continue
		}

		i++
		if i == len(runes) {
			set['?'] = true
			break
		}

		switch runes[i] {
		case 'l':
			setRange(&set, 'a', 'z')
		case 'u':
			setRange(&set, 'A', 'Z')
		case 'd':
			setRange(&set, '0', '9')
		case 'a':
			setRange(&set, 'a', 'z')
			setRange(&set, 'A', 'Z')
			setRange(&set, '0', '9')
		case 'p':
			setRange(&set, ' ', '~')
		case 's':
			setPunctuation(&set)
		case 'b':
			for c := range set {
				set[c] = true
			}
		case '?':
			set['?'] = true
		default:
			return nil, NewArgumentError("charset", expr, "unknown charset class ?"+string(runes[i]))
		}
	}

	result := make([]byte, 0, 256)
	for c := 0; c < 256; c++ {
		if set[c] {
			result = append(result, byte(c))
		}
	}
	return result, nil
}

func setRange(set *[256]bool, lo, hi byte) {
	for c := lo; c <= hi; c++ {
		set[c] = true
	}
}

// setPunctuation sets every printable byte that is not alphanumeric,
// matching the reference tool's "printable & ~alphanum" definition.
func setPunctuation(set *[256]bool) {
	for c := byte(' '); c <= '~'; c++ {
		if isAlphanum(c) {
			continue
		}
		set[c] = true
	}
}

func isAlphanum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

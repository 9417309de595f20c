package compiler

// Compile runs the full pipeline over src and returns the generated
// assembly text. On failure the returned error is a *CompileError from
// whichever stage rejected the input; no assembly is produced.
func Compile(src string) (string, error) {
	tokens, err := Lex(src)
	if err != nil {
		return "", err
	}

	prog, err := Parse(tokens)
	if err != nil {
		return "", err
	}

	return Generate(prog), nil
}

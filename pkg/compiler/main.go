// Package compiler provides the Pine lexer, parser/type checker, and code
// generator that targets RISC-V assembly with Venus syscall conventions.
//
// Pipeline: Pine source → Lex → Parse → Generate → RISC-V assembly text
package compiler

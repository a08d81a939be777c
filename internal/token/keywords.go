package token

var keywords = map[string]Kind{
	"function":    KwFunction,
	"endfunction": KwEndFunction,
	"module":      KwModule,
	"endmodule":   KwEndModule,
	"method":      KwMethod,
	"endmethod":   KwEndMethod,
	"rule":        KwRule,
	"endrule":     KwEndRule,
	"input":       KwInput,
	"default":     KwDefault,
	"if":          KwIf,
	"else":        KwElse,
	"case":        KwCase,
	"endcase":     KwEndCase,
	"for":         KwFor,
	"begin":       KwBegin,
	"end":         KwEnd,
	"return":      KwReturn,
	"let":         KwLet,
	"typedef":     KwTypedef,
	"struct":      KwStruct,
	"enum":        KwEnum,
	"type":        KwType,
	"import":      KwImport,
	"True":        KwTrue,
	"False":       KwFalse,
}

// LookupKeyword reports whether ident is a keyword. Keywords are case-sensitive.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

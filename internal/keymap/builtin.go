package keymap

// Built-in layout. Aliases (C/ch, f/ph, v/bh, S/sh, H/:, kkh/kSh, gg/jY) map to
// the same glyph on purpose; patterns stay unique.

// builtinVowels are the free-standing vowel letters.
var builtinVowels = []Entry{
	{Pattern: "o", Glyph: "অ", Role: RoleIndependentVowel},
	{Pattern: "a", Glyph: "আ", Role: RoleIndependentVowel},
	{Pattern: "i", Glyph: "ই", Role: RoleIndependentVowel},
	{Pattern: "I", Glyph: "ঈ", Role: RoleIndependentVowel},
	{Pattern: "u", Glyph: "উ", Role: RoleIndependentVowel},
	{Pattern: "U", Glyph: "ঊ", Role: RoleIndependentVowel},
	{Pattern: "rri", Glyph: "ঋ", Role: RoleIndependentVowel},
	{Pattern: "e", Glyph: "এ", Role: RoleIndependentVowel},
	{Pattern: "oi", Glyph: "ঐ", Role: RoleIndependentVowel},
	{Pattern: "O", Glyph: "ও", Role: RoleIndependentVowel},
	{Pattern: "ou", Glyph: "ঔ", Role: RoleIndependentVowel},
}

// builtinVowelSigns maps each vowel pattern to the sign used after a consonant.
// The inherent vowel has none.
var builtinVowelSigns = map[string]string{
	"a":   "া",
	"i":   "ি",
	"I":   "ী",
	"u":   "ু",
	"U":   "ূ",
	"rri": "ৃ",
	"e":   "ে",
	"oi":  "ৈ",
	"O":   "ো",
	"ou":  "ৌ",
}

// builtinConsonants are the base consonants, including the khanda ta.
var builtinConsonants = []Entry{
	{Pattern: "kh", Glyph: "খ", Role: RoleConsonant},
	{Pattern: "k", Glyph: "ক", Role: RoleConsonant},
	{Pattern: "gh", Glyph: "ঘ", Role: RoleConsonant},
	{Pattern: "g", Glyph: "গ", Role: RoleConsonant},
	{Pattern: "Ng", Glyph: "ঙ", Role: RoleConsonant},
	{Pattern: "ch", Glyph: "ছ", Role: RoleConsonant},
	{Pattern: "C", Glyph: "ছ", Role: RoleConsonant},
	{Pattern: "c", Glyph: "চ", Role: RoleConsonant},
	{Pattern: "jh", Glyph: "ঝ", Role: RoleConsonant},
	{Pattern: "j", Glyph: "জ", Role: RoleConsonant},
	{Pattern: "Y", Glyph: "ঞ", Role: RoleConsonant},
	{Pattern: "Th", Glyph: "ঠ", Role: RoleConsonant},
	{Pattern: "T", Glyph: "ট", Role: RoleConsonant},
	{Pattern: "Dh", Glyph: "ঢ", Role: RoleConsonant},
	{Pattern: "D", Glyph: "ড", Role: RoleConsonant},
	{Pattern: "N", Glyph: "ণ", Role: RoleConsonant},
	{Pattern: "th", Glyph: "থ", Role: RoleConsonant},
	{Pattern: "t", Glyph: "ত", Role: RoleConsonant},
	{Pattern: "dh", Glyph: "ধ", Role: RoleConsonant},
	{Pattern: "d", Glyph: "দ", Role: RoleConsonant},
	{Pattern: "n", Glyph: "ন", Role: RoleConsonant},
	{Pattern: "ph", Glyph: "ফ", Role: RoleConsonant},
	{Pattern: "f", Glyph: "ফ", Role: RoleConsonant},
	{Pattern: "p", Glyph: "প", Role: RoleConsonant},
	{Pattern: "bh", Glyph: "ভ", Role: RoleConsonant},
	{Pattern: "v", Glyph: "ভ", Role: RoleConsonant},
	{Pattern: "b", Glyph: "ব", Role: RoleConsonant},
	{Pattern: "m", Glyph: "ম", Role: RoleConsonant},
	{Pattern: "z", Glyph: "য", Role: RoleConsonant},
	{Pattern: "r", Glyph: "র", Role: RoleConsonant},
	{Pattern: "l", Glyph: "ল", Role: RoleConsonant},
	{Pattern: "Sh", Glyph: "ষ", Role: RoleConsonant},
	{Pattern: "sh", Glyph: "শ", Role: RoleConsonant},
	{Pattern: "S", Glyph: "শ", Role: RoleConsonant},
	{Pattern: "s", Glyph: "স", Role: RoleConsonant},
	{Pattern: "h", Glyph: "হ", Role: RoleConsonant},
	{Pattern: "Rh", Glyph: "ঢ়", Role: RoleConsonant},
	{Pattern: "R", Glyph: "ড়", Role: RoleConsonant},
	{Pattern: "y", Glyph: "য়", Role: RoleConsonant},
	{Pattern: ".t", Glyph: "ৎ", Role: RoleConsonant},
}

// builtinModifiers are anusvara, visarga and chandrabindu.
var builtinModifiers = []Entry{
	{Pattern: "ng", Glyph: "ং", Role: RoleOther},
	{Pattern: ":", Glyph: "ঃ", Role: RoleOther},
	{Pattern: "H", Glyph: "ঃ", Role: RoleOther},
	{Pattern: ".n", Glyph: "ঁ", Role: RoleOther},
}

// builtinConjuncts are consonant clusters joined with a hasanta.
var builtinConjuncts = []Entry{
	{Pattern: "kSh", Glyph: "ক্ষ", Role: RoleConsonant},
	{Pattern: "kkh", Glyph: "ক্ষ", Role: RoleConsonant},
	{Pattern: "jY", Glyph: "জ্ঞ", Role: RoleConsonant},
	{Pattern: "gg", Glyph: "জ্ঞ", Role: RoleConsonant},
	{Pattern: "kk", Glyph: "ক্ক", Role: RoleConsonant},
	{Pattern: "kT", Glyph: "ক্ট", Role: RoleConsonant},
	{Pattern: "kt", Glyph: "ক্ত", Role: RoleConsonant},
	{Pattern: "kw", Glyph: "ক্ব", Role: RoleConsonant},
	{Pattern: "km", Glyph: "ক্ম", Role: RoleConsonant},
	{Pattern: "kl", Glyph: "ক্ল", Role: RoleConsonant},
	{Pattern: "ks", Glyph: "ক্স", Role: RoleConsonant},
	{Pattern: "tt", Glyph: "ত্ত", Role: RoleConsonant},
	{Pattern: "tn", Glyph: "ত্ন", Role: RoleConsonant},
	{Pattern: "tw", Glyph: "ত্ব", Role: RoleConsonant},
	{Pattern: "tm", Glyph: "ত্ম", Role: RoleConsonant},
	{Pattern: "dd", Glyph: "দ্দ", Role: RoleConsonant},
	{Pattern: "dw", Glyph: "দ্ব", Role: RoleConsonant},
	{Pattern: "dm", Glyph: "দ্ম", Role: RoleConsonant},
	{Pattern: "nn", Glyph: "ন্ন", Role: RoleConsonant},
	{Pattern: "nt", Glyph: "ন্ত", Role: RoleConsonant},
	{Pattern: "nd", Glyph: "ন্দ", Role: RoleConsonant},
	{Pattern: "nw", Glyph: "ন্ব", Role: RoleConsonant},
	{Pattern: "nm", Glyph: "ন্ম", Role: RoleConsonant},
	{Pattern: "pp", Glyph: "প্প", Role: RoleConsonant},
	{Pattern: "pt", Glyph: "প্ত", Role: RoleConsonant},
	{Pattern: "pl", Glyph: "প্ল", Role: RoleConsonant},
	{Pattern: "bb", Glyph: "ব্ব", Role: RoleConsonant},
	{Pattern: "bd", Glyph: "ব্দ", Role: RoleConsonant},
	{Pattern: "bl", Glyph: "ব্ল", Role: RoleConsonant},
	{Pattern: "mm", Glyph: "ম্ম", Role: RoleConsonant},
	{Pattern: "mp", Glyph: "ম্প", Role: RoleConsonant},
	{Pattern: "mb", Glyph: "ম্ব", Role: RoleConsonant},
	{Pattern: "ml", Glyph: "ম্ল", Role: RoleConsonant},
	{Pattern: "ll", Glyph: "ল্ল", Role: RoleConsonant},
	{Pattern: "lk", Glyph: "ল্ক", Role: RoleConsonant},
	{Pattern: "lg", Glyph: "ল্গ", Role: RoleConsonant},
	{Pattern: "lp", Glyph: "ল্প", Role: RoleConsonant},
	{Pattern: "lw", Glyph: "ল্ব", Role: RoleConsonant},
	{Pattern: "lm", Glyph: "ল্ম", Role: RoleConsonant},
	{Pattern: "sk", Glyph: "স্ক", Role: RoleConsonant},
	{Pattern: "st", Glyph: "স্ত", Role: RoleConsonant},
	{Pattern: "sn", Glyph: "স্ন", Role: RoleConsonant},
	{Pattern: "sp", Glyph: "স্প", Role: RoleConsonant},
	{Pattern: "sw", Glyph: "স্ব", Role: RoleConsonant},
	{Pattern: "sm", Glyph: "স্ম", Role: RoleConsonant},
	{Pattern: "sl", Glyph: "স্ল", Role: RoleConsonant},
}

// builtinSymbols covers digits, the danda, the taka sign and the ya-phala vowel.
var builtinSymbols = []Entry{
	{Pattern: "0", Glyph: "০", Role: RoleOther},
	{Pattern: "1", Glyph: "১", Role: RoleOther},
	{Pattern: "2", Glyph: "২", Role: RoleOther},
	{Pattern: "3", Glyph: "৩", Role: RoleOther},
	{Pattern: "4", Glyph: "৪", Role: RoleOther},
	{Pattern: "5", Glyph: "৫", Role: RoleOther},
	{Pattern: "6", Glyph: "৬", Role: RoleOther},
	{Pattern: "7", Glyph: "৭", Role: RoleOther},
	{Pattern: "8", Glyph: "৮", Role: RoleOther},
	{Pattern: "9", Glyph: "৯", Role: RoleOther},
	{Pattern: ".", Glyph: "।", Role: RoleOther},
	{Pattern: "$", Glyph: "৳", Role: RoleOther},
	{Pattern: "aya", Glyph: "অ্যা", Role: RoleOther},
}

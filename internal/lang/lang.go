// Package lang holds the language tables shared by every pipeline stage:
// ISO 639-1 to FLORES mappings and the per-engine capability sets used by
// the backend selectors.
package lang

import "strings"

// ISOToFLORES maps ISO 639-1/3 codes to FLORES lang_Script tags.
var ISOToFLORES = map[string]string{
	"en": "eng_Latn", "hi": "hin_Deva", "bn": "ben_Beng", "as": "asm_Beng",
	"gu": "guj_Gujr", "kn": "kan_Knda", "ml": "mal_Mlym", "mr": "mar_Deva",
	"ne": "npi_Deva", "or": "ory_Orya", "pa": "pan_Guru", "sa": "san_Deva",
	"ta": "tam_Taml", "te": "tel_Telu", "ur": "urd_Arab", "ks": "kas_Arab",
	"sd": "snd_Arab", "brx": "brx_Deva", "doi": "doi_Deva", "mai": "mai_Deva",
	"kok": "kok_Deva", "mni": "mni_Beng", "sat": "sat_Olck",
	"es": "spa_Latn", "fr": "fra_Latn", "de": "deu_Latn", "it": "ita_Latn",
	"pt": "por_Latn", "ru": "rus_Cyrl", "zh": "zho_Hans", "ja": "jpn_Jpan",
	"ko": "kor_Hang", "ar": "arb_Arab", "fa": "pes_Arab", "tr": "tur_Latn",
	"id": "ind_Latn",
}

// IndicFLORES is the set of FLORES tags the IndicTrans2 MT models accept on
// both sides of a pair.
var IndicFLORES = map[string]struct{}{
	"asm_Beng": {}, "ben_Beng": {}, "brx_Deva": {}, "doi_Deva": {},
	"guj_Gujr": {}, "hin_Deva": {}, "kan_Knda": {}, "kas_Arab": {},
	"kas_Deva": {}, "mai_Deva": {}, "mal_Mlym": {}, "mar_Deva": {},
	"npi_Deva": {}, "ory_Orya": {}, "pan_Guru": {}, "san_Deva": {},
	"sat_Olck": {}, "snd_Arab": {}, "snd_Deva": {}, "tam_Taml": {},
	"tel_Telu": {}, "urd_Arab": {}, "kok_Deva": {}, "mni_Beng": {},
	"mni_Mtei": {}, "gom_Deva": {},
}

// ConformerISO is the set of ISO codes the IndicConformer ASR model supports.
var ConformerISO = map[string]struct{}{
	"as": {}, "bn": {}, "brx": {}, "doi": {}, "gu": {}, "hi": {}, "kn": {},
	"kok": {}, "ks": {}, "mai": {}, "ml": {}, "mni": {}, "mr": {}, "ne": {},
	"or": {}, "pa": {}, "sa": {}, "sat": {}, "sd": {}, "ta": {}, "te": {},
	"ur": {},
}

// WhisperISO is the set of ISO codes the Whisper models are trusted with.
var WhisperISO = map[string]struct{}{
	"en": {}, "es": {}, "fr": {}, "de": {}, "it": {}, "pt": {}, "ru": {},
	"zh": {}, "ja": {}, "ko": {}, "ar": {}, "fa": {}, "tr": {}, "id": {},
	"hi": {}, "bn": {}, "ta": {}, "te": {}, "mr": {}, "gu": {}, "kn": {},
	"ml": {}, "pa": {}, "ur": {}, "ne": {},
}

// IndicTTSISO is the set of ISO codes routed to the Indic-Parler synthesizer.
var IndicTTSISO = map[string]struct{}{
	"hi": {}, "bn": {}, "gu": {}, "mr": {}, "ta": {}, "te": {}, "kn": {},
	"ml": {}, "pa": {}, "or": {}, "as": {}, "ne": {},
}

// XTTSISO is the set of ISO codes supported by Coqui XTTS v2.
var XTTSISO = map[string]struct{}{
	"en": {}, "es": {}, "fr": {}, "de": {}, "it": {}, "pt": {}, "pl": {},
	"tr": {}, "ru": {}, "nl": {}, "cs": {}, "ar": {}, "zh-cn": {}, "zh": {},
	"ja": {}, "ko": {}, "hu": {}, "hi": {},
}

// ToFLORES resolves an ISO or FLORES code to a FLORES tag. Codes that
// already carry a script suffix pass through; unmapped ISO codes are
// returned unchanged so callers can surface them verbatim.
func ToFLORES(code string) string {
	if strings.Contains(code, "_") {
		return code
	}
	if flores, ok := ISOToFLORES[code]; ok {
		return flores
	}
	return code
}

// ToISO reduces a FLORES tag (or ISO code) to a bare ISO code.
func ToISO(code string) string {
	if i := strings.Index(code, "_"); i >= 0 {
		code = code[:i]
	}
	// FLORES uses three-letter prefixes for languages whose ISO 639-1 code
	// differs; map the ones the pipeline routes on.
	switch code {
	case "eng":
		return "en"
	case "hin":
		return "hi"
	case "ben":
		return "bn"
	case "asm":
		return "as"
	case "guj":
		return "gu"
	case "kan":
		return "kn"
	case "mal":
		return "ml"
	case "mar":
		return "mr"
	case "npi":
		return "ne"
	case "ory":
		return "or"
	case "pan":
		return "pa"
	case "san":
		return "sa"
	case "tam":
		return "ta"
	case "tel":
		return "te"
	case "urd":
		return "ur"
	case "kas":
		return "ks"
	case "snd":
		return "sd"
	case "spa":
		return "es"
	case "fra":
		return "fr"
	case "deu":
		return "de"
	case "ita":
		return "it"
	case "por":
		return "pt"
	case "rus":
		return "ru"
	case "zho":
		return "zh"
	case "jpn":
		return "ja"
	case "kor":
		return "ko"
	case "arb":
		return "ar"
	case "pes":
		return "fa"
	case "tur":
		return "tr"
	case "ind":
		return "id"
	}
	return code
}

// IsIndicPair reports whether both FLORES tags are in the IndicTrans2 set.
func IsIndicPair(srcFLORES, tgtFLORES string) bool {
	_, src := IndicFLORES[srcFLORES]
	_, tgt := IndicFLORES[tgtFLORES]
	return src && tgt
}

package tts

// voiceTemplates are the default voice descriptions for prompt-driven
// engines, keyed by ISO 639-1 target language.
var voiceTemplates = map[string]string{
	"hi": "Sunita speaks in a calm, neutral Hindi voice with clear audio and no background noise.",
	"en": "A neutral English speaker speaks with a clear, moderately-paced British/Indian-accented voice.",
	"ta": "Jaya speaks in a calm Tamil voice with natural prosody and clear audio.",
	"te": "Prakash speaks in a calm Telugu voice with natural prosody and clear audio.",
	"kn": "Suresh speaks in a calm Kannada voice with clear audio and no background noise.",
}

const defaultVoiceTemplate = "The speaker speaks naturally in clear audio with no background noise."

// VoiceDescription returns the default voice description for a target
// language.
func VoiceDescription(language string) string {
	if desc, ok := voiceTemplates[language]; ok {
		return desc
	}
	return defaultVoiceTemplate
}

package plugins

import "github.com/voicelearn/vleval/internal/models"

// LLMBenchmarks is the built-in catalogue of text benchmarks, bucketed into
// education tiers. IDs double as lm-evaluation-harness task names.
var LLMBenchmarks = []Benchmark{
	// Elementary
	{ID: "mmlu_elementary_mathematics", Name: "MMLU Elementary Mathematics", Tier: models.TierElementary, Subject: "math", Metric: "acc"},
	{ID: "mmlu_formal_logic", Name: "MMLU Formal Logic", Tier: models.TierElementary, Subject: "math", Metric: "acc"},
	{ID: "arc_easy", Name: "ARC Easy", Tier: models.TierElementary, Subject: "science", Metric: "acc_norm"},
	{ID: "gsm8k", Name: "GSM8K", Tier: models.TierElementary, Subject: "math", Metric: "exact_match"},

	// High school
	{ID: "mmlu_high_school_biology", Name: "MMLU High School Biology", Tier: models.TierHighSchool, Subject: "biology", Metric: "acc"},
	{ID: "mmlu_high_school_chemistry", Name: "MMLU High School Chemistry", Tier: models.TierHighSchool, Subject: "chemistry", Metric: "acc"},
	{ID: "mmlu_high_school_physics", Name: "MMLU High School Physics", Tier: models.TierHighSchool, Subject: "physics", Metric: "acc"},
	{ID: "mmlu_high_school_mathematics", Name: "MMLU High School Mathematics", Tier: models.TierHighSchool, Subject: "math", Metric: "acc"},
	{ID: "mmlu_high_school_us_history", Name: "MMLU High School US History", Tier: models.TierHighSchool, Subject: "history", Metric: "acc"},
	{ID: "mmlu_high_school_world_history", Name: "MMLU High School World History", Tier: models.TierHighSchool, Subject: "history", Metric: "acc"},
	{ID: "mmlu_high_school_computer_science", Name: "MMLU High School Computer Science", Tier: models.TierHighSchool, Subject: "cs", Metric: "acc"},
	{ID: "arc_challenge", Name: "ARC Challenge", Tier: models.TierHighSchool, Subject: "science", Metric: "acc_norm"},

	// Undergraduate
	{ID: "mmlu_college_biology", Name: "MMLU College Biology", Tier: models.TierUndergrad, Subject: "biology", Metric: "acc"},
	{ID: "mmlu_college_chemistry", Name: "MMLU College Chemistry", Tier: models.TierUndergrad, Subject: "chemistry", Metric: "acc"},
	{ID: "mmlu_college_mathematics", Name: "MMLU College Mathematics", Tier: models.TierUndergrad, Subject: "math", Metric: "acc"},
	{ID: "mmlu_college_physics", Name: "MMLU College Physics", Tier: models.TierUndergrad, Subject: "physics", Metric: "acc"},
	{ID: "mmlu_college_computer_science", Name: "MMLU College Computer Science", Tier: models.TierUndergrad, Subject: "cs", Metric: "acc"},
	{ID: "math", Name: "MATH", Tier: models.TierUndergrad, Subject: "math", Metric: "exact_match"},
	{ID: "mmlu_pro", Name: "MMLU Pro", Tier: models.TierUndergrad, Subject: "general", Metric: "acc"},

	// Graduate
	{ID: "mmlu_professional_medicine", Name: "MMLU Professional Medicine", Tier: models.TierGrad, Subject: "medicine", Metric: "acc"},
	{ID: "mmlu_professional_law", Name: "MMLU Professional Law", Tier: models.TierGrad, Subject: "law", Metric: "acc"},
	{ID: "mmlu_professional_accounting", Name: "MMLU Professional Accounting", Tier: models.TierGrad, Subject: "accounting", Metric: "acc"},
	{ID: "gpqa", Name: "GPQA", Tier: models.TierGrad, Subject: "science", Metric: "acc_norm"},

	// Non-tiered
	{ID: "truthfulqa_mc2", Name: "TruthfulQA MC2", Subject: "factuality", Metric: "acc"},
	{ID: "hellaswag", Name: "HellaSwag", Subject: "reasoning", Metric: "acc_norm"},
	{ID: "humaneval", Name: "HumanEval", Subject: "code", Metric: "exact_match"},
	{ID: "ifeval", Name: "IFEval", Subject: "instruction_following", Metric: "acc"},
}

// STTBenchmarks covers speech-to-text evaluation (word error rate based).
var STTBenchmarks = []Benchmark{
	{ID: "librispeech_clean", Name: "LibriSpeech test-clean", Subject: "transcription", Metric: "wer"},
	{ID: "librispeech_other", Name: "LibriSpeech test-other", Subject: "transcription", Metric: "wer"},
	{ID: "common_voice_en", Name: "Common Voice English", Subject: "transcription", Metric: "wer"},
	{ID: "ami_meetings", Name: "AMI Meeting Corpus", Subject: "transcription", Metric: "wer"},
}

// TTSBenchmarks covers text-to-speech quality (MOS-predictor based).
var TTSBenchmarks = []Benchmark{
	{ID: "mos_utmos", Name: "UTMOS Predicted Quality", Subject: "naturalness", Metric: "mos_utmos"},
	{ID: "mos_wvmos", Name: "WVMOS Predicted Quality", Subject: "naturalness", Metric: "mos_wvmos"},
	{ID: "phoneme_accuracy", Name: "Phoneme Accuracy", Subject: "intelligibility", Metric: "per"},
}

package words

// Built-in tier vocabularies. Easy stays short and common; each tier
// up adds length and rarer letter patterns.
var easyWords = []string{
	"and", "the", "you", "was", "for", "are", "with", "his", "they",
	"this", "have", "from", "one", "had", "word", "but", "not", "what",
	"all", "were", "when", "your", "can", "said", "there", "use", "each",
	"which", "she", "how", "their", "will", "other", "about", "out",
	"many", "then", "them", "these", "some", "her", "would", "make",
	"like", "him", "into", "time", "has", "look", "two", "more", "write",
	"see", "number", "way", "could", "people", "than", "first", "water",
	"been", "call", "who", "oil", "its", "now", "find", "long", "down",
	"day", "did", "get", "come", "made", "may", "part",
}

var mediumWords = []string{
	"between", "journey", "picture", "country", "example", "sentence",
	"thought", "through", "morning", "nothing", "against", "pattern",
	"science", "perhaps", "problem", "evening", "brought", "special",
	"heavily", "quickly", "certain", "however", "several", "history",
	"finally", "machine", "present", "learned", "balance", "surface",
	"weather", "feeling", "station", "winter", "window", "garden",
	"market", "moment", "nature", "second", "family", "letter", "animal",
	"ground", "strong", "plural", "listen", "travel", "circle", "coffee",
	"office", "branch", "bridge", "planet", "castle", "forest", "island",
	"middle", "silver", "stream", "summer", "shadow", "memory", "beyond",
}

var hardWords = []string{
	"beautiful", "different", "important", "following", "sometimes",
	"necessary", "knowledge", "carefully", "structure", "community",
	"direction", "situation", "difficult", "excellent", "reference",
	"scientist", "character", "attention", "strength", "education",
	"furniture", "discovery", "emergency", "chemistry", "dangerous",
	"landscape", "universal", "signature", "procedure", "boundary",
	"companion", "narrative", "statement", "arrangement", "government",
	"restaurant", "experience", "particular", "understand", "television",
	"background", "instrument", "vocabulary", "conclusion", "dictionary",
	"atmosphere", "literature", "percentage", "laboratory", "microscope",
}

var insaneWords = []string{
	"extraordinary", "approximately", "congratulations", "responsibility",
	"characteristic", "simultaneously", "administration", "recommendation",
	"representative", "transformation", "accomplishment", "archaeological",
	"bibliographical", "circumnavigate", "disproportionate", "electromagnetic",
	"entrepreneurial", "hypothetically", "incomprehensible", "interchangeable",
	"jurisprudence", "kaleidoscopic", "miscellaneous", "onomatopoeia",
	"parliamentary", "pharmaceutical", "phosphorescent", "questionnaire",
	"reconnaissance", "surreptitious", "thermodynamics", "uncharacteristic",
	"vulnerability", "juxtaposition", "quintessential", "serendipitous",
}

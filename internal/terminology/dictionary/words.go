package dictionary

// commonWords is the minimal common-English set used by [Fallback]. It covers
// the most frequent function words, the expansions of every contraction in
// contractionSuffixes, and everyday vocabulary that shows up in spoken
// lessons.
var commonWords = toSet(
	// articles, pronouns, determiners
	"a", "an", "the", "i", "me", "my", "mine", "myself", "you", "your", "yours",
	"yourself", "he", "him", "his", "she", "her", "hers", "it", "its", "itself",
	"we", "us", "our", "ours", "they", "them", "their", "theirs", "this", "that",
	"these", "those", "who", "whom", "whose", "which", "what", "there", "here",
	"some", "any", "all", "each", "every", "both", "either", "neither", "no",
	"none", "one", "other", "another", "such", "own", "same", "let",

	// auxiliaries (contraction expansions)
	"is", "am", "are", "was", "were", "be", "been", "being", "has", "have",
	"had", "having", "do", "does", "did", "doing", "will", "would", "shall",
	"should", "can", "could", "may", "might", "must", "not", "ought",

	// prepositions and conjunctions
	"and", "or", "but", "if", "so", "because", "as", "until", "while", "of",
	"at", "by", "for", "with", "about", "against", "between", "into", "through",
	"during", "before", "after", "above", "below", "to", "from", "in", "out",
	"on", "off", "over", "under", "again", "further", "then", "once", "than",
	"too", "very", "just", "also", "only", "even", "still", "yet", "though",
	"although", "since", "without", "within", "around", "across", "along",
	"behind", "near", "onto", "upon", "like",

	// adverbs and discourse markers
	"now", "when", "where", "why", "how", "always", "never", "often",
	"sometimes", "usually", "really", "actually", "basically", "probably",
	"maybe", "right", "okay", "ok", "yes", "yeah", "well", "oh", "um", "uh",
	"hmm", "alright", "sure", "pretty", "quite", "almost", "already", "enough",
	"together", "away", "back", "more", "most", "less", "least", "much",
	"many", "few", "little", "lot", "lots", "kind", "sort", "thing", "things",
	"way", "ways", "today", "tonight", "tomorrow", "yesterday", "soon", "later",
	"first", "last", "next", "again", "ever",

	// common verbs
	"go", "goes", "going", "gone", "went", "get", "gets", "getting", "got",
	"make", "makes", "making", "made", "take", "takes", "taking", "took",
	"come", "comes", "coming", "came", "see", "sees", "seeing", "saw", "seen",
	"know", "knows", "knew", "known", "think", "thinks", "thought", "look",
	"looks", "looking", "looked", "want", "wants", "wanted", "give", "gives",
	"gave", "use", "uses", "using", "used", "find", "found", "tell", "told",
	"say", "says", "said", "ask", "work", "works", "working", "feel", "feels",
	"try", "tries", "trying", "tried", "leave", "call", "keep", "keeps",
	"start", "started", "show", "shows", "hear", "hold", "holding", "put",
	"puts", "bring", "begin", "move", "moving", "need", "needs", "help",
	"learn", "learning", "practice", "practicing", "watch", "listen", "wait",
	"stop", "sound", "sounds", "change", "changes", "mean", "means", "happen",
	"sit", "stand", "turn", "place", "play", "playing", "played",

	// common nouns and adjectives
	"time", "times", "people", "person", "man", "woman", "day", "days", "year",
	"years", "part", "parts", "hand", "hands", "finger", "fingers", "world",
	"life", "home", "video", "lesson", "lessons", "song", "songs", "music",
	"good", "great", "new", "old", "big", "small", "long", "short", "high",
	"low", "easy", "hard", "nice", "cool", "fast", "slow", "slowly", "quick",
	"quickly", "different", "important", "able", "whole", "real", "best",
	"better", "bit", "end", "side", "top", "bottom", "left", "name", "idea",
	"example", "question", "problem", "number", "point", "step", "steps",
	"two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
	"hello", "hi", "hey", "thanks", "thank", "please", "welcome", "guys",
	"everyone", "everybody", "something", "anything", "nothing", "everything",
	"someone", "anyone",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

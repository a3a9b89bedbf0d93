package normalize

// englishStopwords is the English stopword set applied before stemming.
var englishStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "have", "had", "he", "she", "in", "is", "it", "its", "of",
	"on", "or", "that", "the", "to", "was", "were", "will", "with",
	"this", "but", "they", "what", "when", "where", "who", "which",
	"their", "if", "each", "do", "does", "did", "not", "no", "so",
	"can", "could", "would", "should", "about", "into", "than", "then",
	"there", "these", "those", "i", "you", "we", "us", "our", "your",
	"him", "her", "his", "them", "been", "being", "am", "is", "are",
	"also", "just", "only", "such", "too", "very", "up", "down", "out",
	"over", "under", "again", "further", "once", "here", "all", "any",
	"both", "few", "more", "most", "other", "some", "own", "same",
}

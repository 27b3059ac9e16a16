package processor

// stopWords are common English words that never make it into the keyword
// frequency table.
var stopWords = func() map[string]bool {
	words := []string{
		"a", "about", "above", "after", "again", "against", "all", "also", "am", "an",
		"and", "any", "are", "aren", "around", "as", "at", "be", "because", "been",
		"before", "being", "below", "between", "both", "but", "by", "can", "could", "did",
		"didn", "do", "does", "doesn", "doing", "don", "down", "during", "each", "even",
		"ever", "every", "few", "for", "from", "further", "get", "gets", "got", "had",
		"has", "have", "having", "he", "her", "here", "hers", "herself", "him", "himself",
		"his", "how", "however", "into", "is", "isn", "it", "its", "itself", "just",
		"last", "like", "made", "make", "makes", "many", "may", "me", "might", "more",
		"most", "much", "must", "my", "myself", "new", "next", "nor", "not", "now",
		"off", "once", "one", "only", "other", "our", "ours", "ourselves", "out", "over",
		"own", "said", "same", "says", "see", "she", "should", "since", "some", "still",
		"such", "than", "that", "the", "their", "theirs", "them", "themselves", "then", "there",
		"these", "they", "this", "those", "through", "too", "two", "under", "until", "upon",
		"use", "used", "using", "very", "via", "want", "was", "wasn", "way", "we",
		"week", "well", "were", "weren", "what", "when", "where", "whether", "which", "while",
		"who", "whom", "why", "will", "with", "within", "without", "won", "would", "year",
		"years", "yet", "you", "your", "yours", "yourself", "yourselves", "today", "read", "article",
	}

	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}()

func isStopWord(token string) bool {
	return stopWords[token]
}

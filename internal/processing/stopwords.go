package processing

import "strings"

// Stop-word sets per OCR language code. The non-English lists are short and
// under-filter; they are a starting default rather than a linguistic resource.
var stopWords = map[string]map[string]struct{}{
	"eng": wordSet("a an the and or but if then with without within to from by on in at of for as is are was were be been being it its this that those these there here about above below over under again further once only very more most some such no nor not than too can will just into between after before during each other same own yourself himself herself themselves ourselves"),
	"hin": wordSet("और पर में है हैं था थे थी तो से को की का के यह ये वह वे जो तक भी ही आदि जैसे तथा"),
	"tam": wordSet("மற்றும் அது இது அவர் அவர்கள் ஆகிறது உள்ள உள்ளனர் என்று இந்த அந்த ஒரு இரண்டு மேலும் மிகவும் மட்டும் போன்றவை போன்ற"),
}

func wordSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range Tokenize(words) {
		set[w] = struct{}{}
	}
	return set
}

// StopWords returns the stop-word set for lang, defaulting to English.
func StopWords(lang string) map[string]struct{} {
	if set, ok := stopWords[strings.ToLower(lang)]; ok {
		return set
	}
	return stopWords["eng"]
}

package gather

import "sort"

// CorpusSpec is a named, hand-curated set of stories to gather from one
// source page.
type CorpusSpec struct {
	Name        string
	Description string
	License     string
	Extractors  []Extractor
}

const publicDomainLicense = "Public domain, from Project Gutenberg."

// wildeURL hosts the full Happy Prince collection in one page.
const wildeURL = "https://www.gutenberg.org/cache/epub/902/pg902-images.html"

// ohenryURL hosts The Four Million collection.
const ohenryURL = "https://www.gutenberg.org/cache/epub/2776/pg2776-images.html"

// Corpora is the registry of gatherable corpora, keyed by name.
var Corpora = map[string]CorpusSpec{
	"wilde_happy_prince": {
		Name:        "wilde_happy_prince",
		Description: "Wilde stories from the Gutenberg Project.",
		License:     publicDomainLicense,
		Extractors: []Extractor{
			{Title: "The Happy Prince", File: "happy_prince", Heading: "The Happy Prince.", URL: wildeURL, Author: "Wilde", Year: 1888},
			{Title: "The Nightingale and the Rose", File: "nightingale_and_the_rose", Heading: "The Nightingale and the Rose.", URL: wildeURL, Author: "Wilde", Year: 1888},
			{Title: "The Selfish Giant", File: "selfish_giant", Heading: "The Selfish Giant.", URL: wildeURL, Author: "Wilde", Year: 1888},
			{Title: "The Devoted Friend", File: "devoted_friend", Heading: "The Devoted Friend.", URL: wildeURL, Author: "Wilde", Year: 1888},
			{Title: "The Remarkable Rocket", File: "remarkable_rocket", Heading: "The Remarkable Rocket.", URL: wildeURL, Author: "Wilde", Year: 1888},
		},
	},
	"ohenry": {
		Name:        "ohenry",
		Description: "O. Henry stories from The Four Million.",
		License:     publicDomainLicense,
		Extractors: []Extractor{
			{Title: "The Gift of the Magi", Heading: "THE GIFT OF THE MAGI", URL: ohenryURL, Author: "O. Henry", Year: 1906},
			{Title: "The Cop and the Anthem", Heading: "THE COP AND THE ANTHEM", URL: ohenryURL, Author: "O. Henry", Year: 1906},
			{Title: "The Furnished Room", Heading: "THE FURNISHED ROOM", URL: ohenryURL, Author: "O. Henry", Year: 1906},
		},
	},
}

// Names returns the registered corpus names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Corpora))
	for name := range Corpora {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

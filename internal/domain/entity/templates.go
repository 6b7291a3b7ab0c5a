package entity

// Template names shared by every entity type.
const (
	TemplateFuzzy           = "fuzzy"
	TemplateDetails         = "details"
	TemplateAlternate       = "alternate"
	TemplateDistance        = "distance"
	TemplatePlaceSimilarity = "place_similarity"
	TemplateLookupTable     = "lookup_table"
)

// Bibliographic reference templates.
const (
	TemplateISBN             = "isbn"
	TemplateDOI              = "doi"
	TemplateReferenceExact   = "reference_exact"
	TemplateTitleYear        = "title_year"
	TemplateReferenceCode    = "reference_code"
	TemplateReferencePartial = "reference_partial"
	TemplateAuthorFuzzy      = "author_fuzzy"
	TemplateTitleFuzzy       = "title_fuzzy"
	TemplateReferenceSimilar = "reference_similar"
)

package catalog

import "github.com/kailas-cloud/reconciler/internal/domain/entity"

// Built-in entity type keys.
const (
	KeySite         = "site"
	KeyLocation     = "location"
	KeyBibliography = "reference"
)

// Site is the archaeological site register. Fuzzy ranking uses pg_trgm,
// distances use PostGIS geography.
func Site() entity.Config {
	return entity.Config{
		Key:               KeySite,
		Name:              "Archaeological site",
		TypePath:          "/site",
		AlternateIdentity: "register_code",
		Properties: []entity.Property{
			{ID: "register_code", Name: "Register code", Description: "Heritage register identifier"},
			{ID: "lat", Name: "Latitude", Description: "WGS84 latitude in degrees", Settings: map[string]string{"type": "number"}},
			{ID: "lon", Name: "Longitude", Description: "WGS84 longitude in degrees", Settings: map[string]string{"type": "number"}},
			{ID: "place", Name: "Place", Description: "Nearby settlement or parish"},
		},
		Templates: map[string]string{
			entity.TemplateFuzzy: `SELECT s.id::text AS id, s.name AS label, s.description,
       similarity(s.name, $1) AS similarity
FROM sites s
WHERE s.name % $1
ORDER BY similarity DESC, s.name
LIMIT $2`,
			entity.TemplateAlternate: `SELECT s.id::text AS id, s.name AS label, s.description
FROM sites s
WHERE s.register_code = $1`,
			entity.TemplateDetails: `SELECT s.id::text AS id, s.name AS label, s.description, s.register_code,
       ST_Y(s.geom::geometry) AS lat, ST_X(s.geom::geometry) AS lon
FROM sites s
WHERE s.id::text = $1`,
			entity.TemplateDistance: `SELECT s.id::text AS id,
       ST_Distance(s.geom, ST_SetSRID(ST_MakePoint($3, $2), 4326)::geography) / 1000.0 AS distance_km
FROM sites s
WHERE s.id::text = ANY($1) AND s.geom IS NOT NULL`,
			entity.TemplatePlaceSimilarity: `SELECT s.id::text AS id,
       word_similarity($2, coalesce(s.description, '')) AS similarity
FROM sites s
WHERE s.id::text = ANY($1)`,
		},
	}
}

// Location is the geocoded place type. It has no SQL templates.
func Location() entity.Config {
	return entity.Config{
		Key:      KeyLocation,
		Name:     "Location",
		TypePath: "/location",
		Properties: []entity.Property{
			{ID: "lat", Name: "Latitude", Settings: map[string]string{"type": "number"}},
			{ID: "lon", Name: "Longitude", Settings: map[string]string{"type": "number"}},
			{ID: "country", Name: "Country", Description: "ISO 3166-1 alpha-2 code restricting the search"},
		},
	}
}

const referenceColumns = `r.id::text AS id, r.reference AS label, r.title AS description, r.year`

// Bibliography is the bibliographic reference catalogue.
func Bibliography() entity.Config {
	return entity.Config{
		Key:      KeyBibliography,
		Name:     "Bibliographic reference",
		TypePath: "/reference",
		Properties: []entity.Property{
			{ID: "isbn", Name: "ISBN"},
			{ID: "doi", Name: "DOI"},
			{ID: "reference", Name: "Short reference", Description: "Author-year citation as written in the source"},
			{ID: "reference_code", Name: "Reference code"},
			{ID: "title", Name: "Title"},
			{ID: "author", Name: "Author"},
			{ID: "year", Name: "Year", Settings: map[string]string{"type": "number"}},
		},
		Templates: map[string]string{
			entity.TemplateISBN: `SELECT ` + referenceColumns + `
FROM bib_references r
WHERE regexp_replace(upper(r.isbn), '[^0-9X]', '', 'g') = $1`,
			entity.TemplateDOI: `SELECT ` + referenceColumns + `
FROM bib_references r
WHERE lower(r.doi) = $1`,
			entity.TemplateReferenceExact: `SELECT ` + referenceColumns + `
FROM bib_references r
WHERE lower(r.reference) = lower($1)`,
			entity.TemplateTitleYear: `SELECT ` + referenceColumns + `
FROM bib_references r
WHERE lower(r.title) = lower($1) AND r.year = $2`,
			entity.TemplateReferenceCode: `SELECT ` + referenceColumns + `
FROM bib_references r
WHERE r.reference_code = $1`,
			entity.TemplateReferencePartial: `SELECT ` + referenceColumns + `,
       word_similarity($1, r.reference) AS similarity
FROM bib_references r
WHERE $1 <% r.reference
ORDER BY similarity DESC, r.id
LIMIT $2`,
			entity.TemplateAuthorFuzzy: `SELECT ` + referenceColumns + `,
       similarity(r.authors, $1) AS similarity
FROM bib_references r
WHERE r.year = $2 AND r.authors % $1
ORDER BY similarity DESC, r.id
LIMIT $3`,
			entity.TemplateTitleFuzzy: `SELECT ` + referenceColumns + `,
       similarity(r.title, $1) AS similarity
FROM bib_references r
WHERE r.year = $2 AND r.title % $1
ORDER BY similarity DESC, r.id
LIMIT $3`,
			entity.TemplateReferenceSimilar: `SELECT ` + referenceColumns + `,
       similarity(r.reference, $1) AS similarity
FROM bib_references r
WHERE r.reference % $1
ORDER BY similarity DESC, r.id
LIMIT $2`,
			entity.TemplateDetails: `SELECT r.id::text AS id, r.reference, r.title, r.authors, r.year,
       r.isbn, r.doi, r.reference_code
FROM bib_references r
WHERE r.id::text = $1`,
		},
	}
}

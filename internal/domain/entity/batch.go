package entity

// Tipos de archivo y categorías de medios de un lote.
const (
	MediaTypeVideo = "video"

	MediaPicking   = "picking"
	MediaPacking   = "packing"
	MediaLoading   = "loading"
	MediaDeparture = "departure"
)

// Batch lote de cosecha de un agricultor.
type Batch struct {
	ID       int64
	FarmerID int64
	ImageURL string
}

// BatchMediaFile video o imagen de trazabilidad asociado a un lote.
type BatchMediaFile struct {
	ID            int64
	BatchID       int64
	FileType      string
	FileURL       string
	MediaCategory string
}

package converter

type ProductInfoRedisModel struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	ImageURL string   `json:"image_url"`
	Tags     []string `json:"tags"`
}

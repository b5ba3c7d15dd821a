package geofence

// 文档注释：服务区判定的最小数据结构
// 背景：统一承载坐标、服务半径与行政区包围盒；保持轻量以便在提交、实时投影与离线任务间共享。
// 约束：坐标为 WGS84 经纬度；包围盒为轴对齐矩形（非测地线），仅用于粗粒度的行政区判定。
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds：轴对齐经纬度包围盒，边界值视为在内
type Bounds struct {
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
	MinLng float64 `json:"min_lng" yaml:"min_lng"`
	MaxLng float64 `json:"max_lng" yaml:"max_lng"`
}

// Config：服务区配置（圆形服务半径 + 行政区包围盒）
type Config struct {
	Center   Coordinate `json:"center" yaml:"center"`
	RadiusKm float64    `json:"radius_km" yaml:"radius_km"`
	Bounds   Bounds     `json:"bounds" yaml:"bounds"`
}

// 默认服务中心（班加罗尔市中心）与半径
var (
	DefaultCenter   = Coordinate{Lat: 12.9715987, Lng: 77.5945627}
	DefaultRadiusKm = 20.0
	// 卡纳塔克邦近似包围盒
	DefaultBounds = Bounds{MinLat: 11.5, MaxLat: 18.5, MinLng: 74.0, MaxLng: 78.6}
)

// DefaultConfig：返回内置的默认服务区配置
func DefaultConfig() Config {
	return Config{Center: DefaultCenter, RadiusKm: DefaultRadiusKm, Bounds: DefaultBounds}
}

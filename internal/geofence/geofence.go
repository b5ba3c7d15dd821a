// 包 geofence：服务区几何判定（球面距离、服务半径、行政区包围盒），纯函数无状态
package geofence

import "math"

// EarthRadiusKm：Haversine 使用的地球半径（千米）
const EarthRadiusKm = 6371.0

// DistanceKm：球面距离（Haversine），返回千米
// 约束：对称；两点相同时为 0。
func DistanceKm(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	sLat := math.Sin(dLat / 2)
	sLng := math.Sin(dLng / 2)
	h := sLat*sLat + math.Cos(lat1)*math.Cos(lat2)*sLng*sLng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// 文档注释：服务区判定器
// 背景：持有静态服务区配置，供提交校验、看板过滤与离线清理共用；不持有可变状态，可并发使用。
type Fence struct {
	cfg Config
}

func New(cfg Config) *Fence { return &Fence{cfg: cfg} }

func (f *Fence) Config() Config { return f.cfg }

// WithinServiceRadius：距服务中心不超过半径即在内（边界值在内）
// 约束：无法归一化的输入一律视为在外。
func (f *Fence) WithinServiceRadius(raw any) bool {
	c, ok := NormalizeCoordinate(raw)
	if !ok {
		return false
	}
	return DistanceKm(c, f.cfg.Center) <= f.cfg.RadiusKm
}

// WithinAdminBounds：轴对齐包围盒判定，与服务半径相互独立
// 背景：仅用于离线清理任务的粗粒度行政区过滤，不参与提交校验。
func (f *Fence) WithinAdminBounds(raw any) bool {
	c, ok := NormalizeCoordinate(raw)
	if !ok {
		return false
	}
	return inBounds(c, f.cfg.Bounds)
}

func inBounds(c Coordinate, b Bounds) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}

package geofence

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// 文档注释：坐标归一化
// 背景：远端文档与手工输入的坐标类型不可信（数字/字符串/缺失），统一在此转换为有限浮点数。
// 约束：lat/lng 任一缺失或无法转换为有限数时返回 false，不抛错；不做范围校验（见 Clamp）。
// 支持：Coordinate、*Coordinate、map[string]any、map[string]float64。
func NormalizeCoordinate(raw any) (Coordinate, bool) {
	switch v := raw.(type) {
	case Coordinate:
		return finite(v.Lat, v.Lng)
	case *Coordinate:
		if v == nil {
			return Coordinate{}, false
		}
		return finite(v.Lat, v.Lng)
	case map[string]float64:
		lat, ok1 := v["lat"]
		lng, ok2 := v["lng"]
		if !ok1 || !ok2 {
			return Coordinate{}, false
		}
		return finite(lat, lng)
	case map[string]any:
		lat, ok := ToFloat(v["lat"])
		if !ok {
			return Coordinate{}, false
		}
		lng, ok := ToFloat(v["lng"])
		if !ok {
			return Coordinate{}, false
		}
		return finite(lat, lng)
	default:
		return Coordinate{}, false
	}
}

func finite(lat, lng float64) (Coordinate, bool) {
	if !isFinite(lat) || !isFinite(lng) {
		return Coordinate{}, false
	}
	return Coordinate{Lat: lat, Lng: lng}, true
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// ToFloat：数值强制转换
// 约束：仅接受数值类型与可解析的数字字符串；空串、布尔与其他类型视为无效。
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Clamp：手工输入坐标的范围收敛
// 背景：手工录入可能越界；纬度截断到 [-90,90]，经度回绕到 [-180,180]。
func Clamp(c Coordinate) Coordinate {
	lat := math.Max(-90, math.Min(90, c.Lat))
	lng := c.Lng
	if lng < -180 || lng > 180 {
		lng = math.Mod(lng+180, 360)
		if lng < 0 {
			lng += 360
		}
		lng -= 180
	}
	return Coordinate{Lat: lat, Lng: lng}
}

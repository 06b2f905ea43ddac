// game/geom.go
package game

import (
	"math"

	"github.com/wfunc/planetserver/models"
)

func vecAdd(a, b models.Vector3) models.Vector3 {
	return models.Vector3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

func vecSub(a, b models.Vector3) models.Vector3 {
	return models.Vector3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func vecScale(v models.Vector3, s float64) models.Vector3 {
	return models.Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func vecLength(v models.Vector3) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func vecDot(a, b models.Vector3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// vecNormalize 返回单位向量；零向量不可归一化，ok=false
func vecNormalize(v models.Vector3) (models.Vector3, bool) {
	l := vecLength(v)
	if l < 1e-9 {
		return models.Vector3{}, false
	}
	return vecScale(v, 1/l), true
}

// quatFromBasis builds the orientation whose local X/Y/Z axes are the
// given orthonormal right/up/back vectors (column-major rotation matrix
// to quaternion, Shepperd's method).
func quatFromBasis(right, up, back models.Vector3) models.Quaternion {
	m00, m01, m02 := right.X, up.X, back.X
	m10, m11, m12 := right.Y, up.Y, back.Y
	m20, m21, m22 := right.Z, up.Z, back.Z

	trace := m00 + m11 + m22
	var q models.Quaternion

	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q.W = 0.25 / s
		q.X = (m21 - m12) * s
		q.Y = (m02 - m20) * s
		q.Z = (m10 - m01) * s
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q.W = (m21 - m12) / s
		q.X = 0.25 * s
		q.Y = (m01 + m10) / s
		q.Z = (m02 + m20) / s
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q.W = (m02 - m20) / s
		q.X = (m01 + m10) / s
		q.Y = 0.25 * s
		q.Z = (m12 + m21) / s
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q.W = (m10 - m01) / s
		q.X = (m02 + m20) / s
		q.Y = (m12 + m21) / s
		q.Z = 0.25 * s
	}
	return q
}

// quatFromEuler 将 XYZ 顺序欧拉角（弧度）转为四元数。
// 入站 move 允许两种朝向表示，入库前统一成四元数。
func quatFromEuler(e models.Euler) models.Quaternion {
	cx, sx := math.Cos(e.X/2), math.Sin(e.X/2)
	cy, sy := math.Cos(e.Y/2), math.Sin(e.Y/2)
	cz, sz := math.Cos(e.Z/2), math.Sin(e.Z/2)

	return models.Quaternion{
		X: sx*cy*cz + cx*sy*sz,
		Y: cx*sy*cz - sx*cy*sz,
		Z: cx*cy*sz + sx*sy*cz,
		W: cx*cy*cz - sx*sy*sz,
	}
}

// surfacePlacement 行星表面放置：XZ 赤道面上角度 angle 处，
// 距球心 radius+standoff+lift。朝向为切线方向，up 对齐外法线。
// 同样输入必得同样输出（walk 的确定性依赖这里）。
func surfacePlacement(center models.Vector3, radius, standoff, angle, lift float64) (models.Vector3, models.Quaternion) {
	normal := models.Vector3{X: math.Cos(angle), Y: 0, Z: math.Sin(angle)}
	pos := vecAdd(center, vecScale(normal, radius+standoff+lift))

	forward := models.Vector3{X: -math.Sin(angle), Y: 0, Z: math.Cos(angle)}
	right := models.Vector3{X: 0, Y: 1, Z: 0}
	back := vecScale(forward, -1)

	return pos, quatFromBasis(right, normal, back)
}

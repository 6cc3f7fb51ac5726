package crypto

// BN254 optimal Ate pairing.
//
// Tower: F_p^12 = F_p^6[w]/(w^2-v), F_p^6 = F_p^2[v]/(v^3-xi), xi = 9+i,
// F_p^2 = F_p[i]/(i^2+1). The D-type sextic twist maps (x', y') on the
// twist E'(F_p^2) to (x' w^2, y' w^3) on E(F_p^12).

import "math/big"

// bn254U is the BN254 curve parameter u.
var bn254U, _ = new(big.Int).SetString("4965661367192848881", 10)

// sixuPlus2NAF is 6u+2 in non-adjacent form, LSB first.
var sixuPlus2NAF = []int8{0, 0, 0, 1, 0, 1, 0, -1, 0, 0, 1, -1, 0, 0, 1, 0,
	0, 1, 1, 0, -1, 0, 0, 1, 0, -1, 0, 0, 0, 0, 1, 1,
	1, 0, 0, -1, 0, 0, 1, 0, 0, 0, 0, 0, -1, 0, 0, 1,
	1, 0, 0, -1, 0, 0, 0, 1, 1, 0, -1, 0, 0, 1, 0, 1, 1}

// BN254Pair computes the optimal Ate pairing e(P, Q).
func BN254Pair(p *G1Point, q *G2Point) *fp12 {
	if p.g1IsInfinity() || q.g2IsInfinity() {
		return fp12One()
	}
	px, py := p.g1ToAffine()
	qx, qy := q.g2ToAffine()
	return finalExp(millerLoop(px, py, qx, qy))
}

// bn254MultiPairing checks that the product of pairings equals 1 in G_T.
func bn254MultiPairing(g1Points []*G1Point, g2Points []*G2Point) bool {
	if len(g1Points) != len(g2Points) {
		return false
	}
	f := fp12One()
	for i := range g1Points {
		if g1Points[i].g1IsInfinity() || g2Points[i].g2IsInfinity() {
			continue
		}
		px, py := g1Points[i].g1ToAffine()
		qx, qy := g2Points[i].g2ToAffine()
		f = fp12Mul(f, millerLoop(px, py, qx, qy))
	}
	return finalExp(f).isOne()
}

// twistPointJ is a Jacobian point on the twist used inside the Miller loop;
// t caches z^2 since the line-function formulas reuse it repeatedly.
type twistPointJ struct {
	x, y, z, t *fp2
}

// lineFunctionDouble computes the tangent line at r, advances r to 2r, and
// returns the sparse Fp12 line coefficients c + (a*v + b*v^2)*w.
func lineFunctionDouble(r *twistPointJ, qx, qy *big.Int) (a, b, c *fp2, rOut *twistPointJ) {
	A := fp2Sqr(r.x)
	B := fp2Sqr(r.y)
	C := fp2Sqr(B)

	D := fp2Add(r.x, B)
	D = fp2Sqr(D)
	D = fp2Sub(D, A)
	D = fp2Sub(D, C)
	D = fp2Add(D, D)

	E := fp2Add(fp2Add(A, A), A)
	G := fp2Sqr(E)

	rOut = &twistPointJ{}
	rOut.x = fp2Sub(fp2Sub(G, D), D)

	rOut.z = fp2Add(r.y, r.z)
	rOut.z = fp2Sqr(rOut.z)
	rOut.z = fp2Sub(rOut.z, B)
	rOut.z = fp2Sub(rOut.z, r.t)

	rOut.y = fp2Sub(D, rOut.x)
	rOut.y = fp2Mul(rOut.y, E)
	t := fp2Add(C, C)
	t = fp2Add(t, t)
	t = fp2Add(t, t)
	rOut.y = fp2Sub(rOut.y, t)

	rOut.t = fp2Sqr(rOut.z)

	t = fp2Mul(E, r.t)
	t = fp2Add(t, t)
	b = fp2Neg(t)
	b = fp2MulScalar(b, qx)

	a = fp2Add(r.x, E)
	a = fp2Sqr(a)
	a = fp2Sub(a, A)
	a = fp2Sub(a, G)
	t = fp2Add(B, B)
	t = fp2Add(t, t)
	a = fp2Sub(a, t)

	c = fp2Mul(rOut.z, r.t)
	c = fp2Add(c, c)
	c = fp2MulScalar(c, qy)

	return
}

// lineFunctionAdd computes the line through r and affine twist point (px,py),
// advances r to r+P, and returns the line coefficients.
func lineFunctionAdd(r *twistPointJ, px, py *fp2, qx, qy *big.Int, r2 *fp2) (a, b, c *fp2, rOut *twistPointJ) {
	B := fp2Mul(px, r.t)

	D := fp2Add(py, r.z)
	D = fp2Sqr(D)
	D = fp2Sub(D, r2)
	D = fp2Sub(D, r.t)
	D = fp2Mul(D, r.t)

	H := fp2Sub(B, r.x)
	I := fp2Sqr(H)

	E := fp2Add(I, I)
	E = fp2Add(E, E)

	J := fp2Mul(H, E)

	L1 := fp2Sub(D, r.y)
	L1 = fp2Sub(L1, r.y)

	V := fp2Mul(r.x, E)

	rOut = &twistPointJ{}
	rOut.x = fp2Sub(fp2Sub(fp2Sqr(L1), J), fp2Add(V, V))

	rOut.z = fp2Add(r.z, H)
	rOut.z = fp2Sqr(rOut.z)
	rOut.z = fp2Sub(rOut.z, r.t)
	rOut.z = fp2Sub(rOut.z, I)

	t := fp2Sub(V, rOut.x)
	t = fp2Mul(t, L1)
	t2 := fp2Mul(r.y, J)
	t2 = fp2Add(t2, t2)
	rOut.y = fp2Sub(t, t2)

	rOut.t = fp2Sqr(rOut.z)

	t = fp2Add(py, rOut.z)
	t = fp2Sqr(t)
	t = fp2Sub(t, r2)
	t = fp2Sub(t, rOut.t)

	t2 = fp2Mul(L1, px)
	t2 = fp2Add(t2, t2)
	a = fp2Sub(t2, t)

	c = fp2MulScalar(rOut.z, qy)
	c = fp2Add(c, c)

	b = fp2Neg(L1)
	b = fp2MulScalar(b, qx)
	b = fp2Add(b, b)

	return
}

// mulLine multiplies ret by the sparse line element c + (a*v + b*v^2)*w,
// exploiting the line's sparsity (c1 = 0, c1 slot holds a, c2 slot holds b)
// for a cheaper Karatsuba product than a full Fp12 multiplication.
func mulLine(ret *fp12, a, b, c *fp2) *fp12 {
	lineC1 := &fp6{c0: fp2Zero(), c1: a, c2: b}

	a2 := fp6Mul(lineC1, ret.c1)
	t3 := fp6MulByFp2(ret.c0, c)

	lineSum := &fp6{c0: c, c1: a, c2: fp2Add(b, c)}
	retSum := fp6Add(ret.c1, ret.c0)

	newC1 := fp6Sub(fp6Sub(fp6Mul(retSum, lineSum), a2), t3)
	newC0 := fp6Add(fp6MulByV(a2), t3)

	return &fp12{c0: newC0, c1: newC1}
}

func millerLoop(px, py *big.Int, qx, qy *fp2) *fp12 {
	ret := fp12One()

	one := &fp2{a0: big.NewInt(1), a1: new(big.Int)}
	r := &twistPointJ{
		x: newFp2(qx.a0, qx.a1),
		y: newFp2(qy.a0, qy.a1),
		z: newFp2(one.a0, one.a1),
		t: newFp2(one.a0, one.a1),
	}

	minusQy := fp2Neg(qy)
	r2 := fp2Sqr(qy)

	for i := len(sixuPlus2NAF) - 1; i > 0; i-- {
		a, b, c, newR := lineFunctionDouble(r, px, py)
		if i != len(sixuPlus2NAF)-1 {
			ret = fp12Sqr(ret)
		}
		ret = mulLine(ret, a, b, c)
		r = newR

		switch sixuPlus2NAF[i-1] {
		case 1:
			a, b, c, newR = lineFunctionAdd(r, qx, qy, px, py, r2)
			ret = mulLine(ret, a, b, c)
			r = newR
		case -1:
			a, b, c, newR = lineFunctionAdd(r, qx, minusQy, px, py, r2)
			ret = mulLine(ret, a, b, c)
			r = newR
		}
	}

	q1x, q1y := frobeniusEndomorphism(qx, qy)

	r2 = fp2Sqr(q1y)
	a, b, c, newR := lineFunctionAdd(r, q1x, q1y, px, py, r2)
	ret = mulLine(ret, a, b, c)
	r = newR

	// -Q2: x scaled by the p^2 Frobenius constant, y unchanged.
	minusQ2x := fp2MulScalar(qx, frobSqXa0)
	minusQ2y := newFp2(qy.a0, qy.a1)

	r2 = fp2Sqr(minusQ2y)
	a, b, c, _ = lineFunctionAdd(r, minusQ2x, minusQ2y, px, py, r2)
	ret = mulLine(ret, a, b, c)

	return ret
}

func frobeniusEndomorphism(qx, qy *fp2) (*fp2, *fp2) {
	x := fp2Mul(fp2Conj(qx), xiToPMinus1Over3Twist)
	y := fp2Mul(fp2Conj(qy), xiToPMinus1Over2Twist)
	return x, y
}

// finalExp raises f to the power (p^12-1)/n, split into an "easy" part via
// conjugation/Frobenius and a "hard" part via the BN parameter u.
func finalExp(f *fp12) *fp12 {
	fInv := fp12Inv(f)
	f1 := fp12Mul(fp12Conj(f), fInv)
	f2 := fp12Mul(fp12FrobSq(f1), f1)
	return finalExpHard(f2)
}

func finalExpHard(f *fp12) *fp12 {
	fu := fp12Exp(f, bn254U)
	fu2 := fp12Exp(fu, bn254U)
	fu3 := fp12Exp(fu2, bn254U)

	fp1 := fp12Frob(f)
	fp2v := fp12FrobSq(f)
	fp3 := fp12Frob3(f)

	fup := fp12Frob(fu)
	fu2p := fp12Frob(fu2)
	fu3p := fp12Frob(fu3)
	fu2p2 := fp12FrobSq(fu2)

	y0 := fp12Mul(fp12Mul(fp1, fp2v), fp3)
	y1 := fp12Conj(f)
	y2 := fu2p2
	y3 := fp12Conj(fup)
	y4 := fp12Mul(fp12Conj(fu), fp12Conj(fu2p))
	y5 := fp12Conj(fu2)
	y6 := fp12Conj(fp12Mul(fu3, fu3p))

	t0 := fp12Mul(fp12Mul(fp12Sqr(y6), y4), y5)
	t1 := fp12Mul(fp12Mul(y3, y5), t0)
	t0 = fp12Mul(t0, y2)
	t1 = fp12Mul(fp12Sqr(t1), t0)
	t1 = fp12Sqr(t1)
	t0 = fp12Mul(t1, y1)
	t1 = fp12Mul(t1, y0)
	t0 = fp12Mul(fp12Sqr(t0), t1)

	return t0
}

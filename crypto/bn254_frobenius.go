package crypto

// Precomputed Frobenius endomorphism constants for the F_p^12 tower used by
// the optimal Ate pairing. Computing f^p generically via exponentiation costs
// hundreds of F_p^12 multiplications; these constants let each tower
// coefficient be updated with a single conjugation and F_p^2 multiplication.
//
//   F_p -> F_p^2 -> F_p^6 -> F_p^12, with F_p^6 = F_p^2[v]/(v^3-xi), xi = 9+i,
//   and F_p^12 = F_p^6[w]/(w^2-v).
//
// An element c00 + c01 v + c02 v^2 + (c10 + c11 v + c12 v^2) w maps under
// x -> x^p to conj(cij) scaled by xi^(k(p-1)/6) for the matching k.

import "math/big"

func bigFromStr(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("crypto: invalid bn254 frobenius constant: " + s)
	}
	return v
}

var (
	frobC1_1 = &fp2{
		a0: bigFromStr("8376118865763821496583973867626364092589906065868298776909617916018768340080"),
		a1: bigFromStr("16469823323077808223889137241176536799009286646108169935659301613961712198316"),
	}
	frobC1_2 = &fp2{
		a0: bigFromStr("21575463638280843010398324269430826099269044274347216827212613867836435027261"),
		a1: bigFromStr("10307601595873709700152284273816112264069230130616436755625194854815875713954"),
	}
	frobC1_3 = &fp2{
		a0: bigFromStr("2821565182194536844548159561693502659359617185244120367078079554186484126554"),
		a1: bigFromStr("3505843767911556378687030309984248845540243509899259641013678093033130930403"),
	}
	frobC1_4 = &fp2{
		a0: bigFromStr("2581911344467009335267311115468803099551665605076196740867805258568234346338"),
		a1: bigFromStr("19937756971775647987995932169929341994314640652964949448313374472400716661030"),
	}
	frobC1_5 = &fp2{
		a0: bigFromStr("685108087231508774477564247770172212460312782337200605669322048753928464687"),
		a1: bigFromStr("8447204650696766136447902020341177575205426561248465145919723016860428151883"),
	}
)

var (
	frobC2_1 = &fp2{a0: bigFromStr("21888242871839275220042445260109153167277707414472061641714758635765020556617"), a1: new(big.Int)}
	frobC2_2 = &fp2{a0: bigFromStr("21888242871839275220042445260109153167277707414472061641714758635765020556616"), a1: new(big.Int)}
	frobC2_3 = &fp2{a0: bigFromStr("21888242871839275222246405745257275088696311157297823662689037894645226208582"), a1: new(big.Int)}
	frobC2_4 = &fp2{a0: bigFromStr("2203960485148121921418603742825762020974279258880205651966"), a1: new(big.Int)}
	frobC2_5 = &fp2{a0: bigFromStr("2203960485148121921418603742825762020974279258880205651967"), a1: new(big.Int)}
)

var (
	frobC3_1 = &fp2{
		a0: bigFromStr("11697423496358154304825782922584725312912383441159505038794027105778954184319"),
		a1: bigFromStr("303847389135065887422783454877609941456349188919719272345083954437860409601"),
	}
	frobC3_2 = &fp2{
		a0: bigFromStr("3772000881919853776433695186713858239009073593817195771773381919316419345261"),
		a1: bigFromStr("2236595495967245188281701248203181795121068902605861227855261137820944008926"),
	}
	frobC3_3 = &fp2{
		a0: bigFromStr("19066677689644738377698246183563772429336693972053703295610958340458742082029"),
		a1: bigFromStr("18382399103927718843559375435273026243156067647398564021675359801612095278180"),
	}
	frobC3_4 = &fp2{
		a0: bigFromStr("5324479202449903542726783395506214481928257762400643279780343368557297135718"),
		a1: bigFromStr("16208900380737693084919495127334387981393726419856888799917914180988844123039"),
	}
	frobC3_5 = &fp2{
		a0: bigFromStr("8941241848238582420466759817324047081148088512956452953208002715982955420483"),
		a1: bigFromStr("10338197737521362862238855242243140895517409139741313354160881284257516364953"),
	}
)

// Frobenius endomorphism constants for the G2 sextic twist.
var (
	frobXa0, _ = new(big.Int).SetString("21575463638280843010398324269430826099269044274347216827212613867836435027261", 10)
	frobXa1, _ = new(big.Int).SetString("10307601595873709700152284273816112264069230130616436755625194854815875713954", 10)
	frobYa0, _ = new(big.Int).SetString("2821565182194536844548159561693502659359617185244120367078079554186484126554", 10)
	frobYa1, _ = new(big.Int).SetString("3505843767911556378687030309984248845540243509899259641013678093033130930403", 10)

	xiToPMinus1Over3Twist = &fp2{a0: frobXa0, a1: frobXa1}
	xiToPMinus1Over2Twist = &fp2{a0: frobYa0, a1: frobYa1}
)

var (
	frobSqXa0, _ = new(big.Int).SetString("21888242871839275220042445260109153167277707414472061641714758635765020556616", 10)
)

func fp12Frob(f *fp12) *fp12 {
	return &fp12{
		c0: &fp6{
			c0: fp2Conj(f.c0.c0),
			c1: fp2Mul(fp2Conj(f.c0.c1), frobC1_2),
			c2: fp2Mul(fp2Conj(f.c0.c2), frobC1_4),
		},
		c1: &fp6{
			c0: fp2Mul(fp2Conj(f.c1.c0), frobC1_1),
			c1: fp2Mul(fp2Conj(f.c1.c1), frobC1_3),
			c2: fp2Mul(fp2Conj(f.c1.c2), frobC1_5),
		},
	}
}

// fp12FrobSq computes f^(p^2); conjugation composed with itself is the
// identity on F_p^2 so only the scaling constants apply.
func fp12FrobSq(f *fp12) *fp12 {
	return &fp12{
		c0: &fp6{
			c0: newFp2(f.c0.c0.a0, f.c0.c0.a1),
			c1: fp2Mul(f.c0.c1, frobC2_2),
			c2: fp2Mul(f.c0.c2, frobC2_4),
		},
		c1: &fp6{
			c0: fp2Mul(f.c1.c0, frobC2_1),
			c1: fp2Mul(f.c1.c1, frobC2_3),
			c2: fp2Mul(f.c1.c2, frobC2_5),
		},
	}
}

func fp12Frob3(f *fp12) *fp12 {
	return &fp12{
		c0: &fp6{
			c0: fp2Conj(f.c0.c0),
			c1: fp2Mul(fp2Conj(f.c0.c1), frobC3_2),
			c2: fp2Mul(fp2Conj(f.c0.c2), frobC3_4),
		},
		c1: &fp6{
			c0: fp2Mul(fp2Conj(f.c1.c0), frobC3_1),
			c1: fp2Mul(fp2Conj(f.c1.c1), frobC3_3),
			c2: fp2Mul(fp2Conj(f.c1.c2), frobC3_5),
		},
	}
}

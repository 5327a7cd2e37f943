package optim

// sgdMomentum applies one SGD step with an exponential moving average of
// the gradient:
//
//	m = m*decay + g*(1-decay)
//	p = p - m*lr
//
// With decay 0 this is plain SGD. Generated artifacts use the same rule.
func sgdMomentum(params, momentum, grad []float32, lr, decay float32) {
	for i, g := range grad {
		momentum[i] = momentum[i]*decay + g*(1-decay)
	}
	for i := range params {
		params[i] -= momentum[i] * lr
	}
}

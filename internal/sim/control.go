package sim

// shape applies one step of input shaping: yaw and throttle rates, smoothed
// pitch/roll targets and the low-altitude takeoff assist.
func shape(s State, in Intent, dt float64, t Tuning) State {
	if in.YawLeft {
		s.Attitude.Yaw += t.YawRate * dt
	}
	if in.YawRight {
		s.Attitude.Yaw -= t.YawRate * dt
	}

	if in.ThrottleUp {
		s.Throttle += t.ThrottleRate * dt
	}
	if in.ThrottleDown {
		s.Throttle -= t.ThrottleRate * dt
	}
	s.Throttle = clamp(s.Throttle, 0, 1)

	pitch, roll := tiltTargets(in, t.TiltAngle)
	k := approach(t.TiltSmoothing, dt)
	s.Attitude.Pitch += (pitch - s.Attitude.Pitch) * k
	s.Attitude.Roll += (roll - s.Attitude.Roll) * k

	if in.Tilting() && s.Position.Y < t.LowAltitude && s.Throttle < t.HoverThrottle {
		goal := t.HoverThrottle + t.AssistMargin
		s.Throttle += (goal - s.Throttle) * approach(t.AssistRate, dt)
		s.Throttle = clamp(s.Throttle, 0, 1)
	}
	return s
}

// tiltTargets maps directional flags to pitch and roll targets. Opposing flags
// cancel. Forward pitches the nose down, Left rolls toward -X.
func tiltTargets(in Intent, tilt float64) (pitch, roll float64) {
	switch {
	case in.Forward && !in.Back:
		pitch = -tilt
	case in.Back && !in.Forward:
		pitch = tilt
	}
	switch {
	case in.Left && !in.Right:
		roll = tilt
	case in.Right && !in.Left:
		roll = -tilt
	}
	return pitch, roll
}

// level decays pitch and roll toward zero.
func level(a Attitude, dt float64, t Tuning) Attitude {
	k := approach(t.LevelRate, dt)
	a.Pitch -= a.Pitch * k
	a.Roll -= a.Roll * k
	return a
}

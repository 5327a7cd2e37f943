package codegen

// The blocks below are written with the default "axon"/"AXON" prefix and
// renamed by the C exporter.

const cHeader = `#pragma once

/* Note: This file is automatically generated. Edits may be lost. */

#include <stddef.h>
#include <stdint.h>
#include <math.h>
#include <limits.h>
`

const cMacros = `/* performance macros */

#ifndef AXON_RESTRICT
#  ifdef __cplusplus
#    if defined(__clang__) || defined(__GNUC__)
#      define AXON_RESTRICT __restrict__
#    elif defined(_MSC_VER)
#      define AXON_RESTRICT __restrict
#    else
#      define AXON_RESTRICT
#    endif
#  else
#    if defined(__STDC_VERSION__) && (__STDC_VERSION__ >= 199901L)
#      define AXON_RESTRICT restrict
#    elif defined(_MSC_VER)
#      define AXON_RESTRICT __restrict
#    elif defined(__clang__) || defined(__GNUC__)
#      define AXON_RESTRICT __restrict__
#    else
#      define AXON_RESTRICT
#    endif
#  endif
#endif
`

const cRNG = `/* RNG */

/* A linear congruential generator. It is a weak fallback for programs that
 * have nothing better; prefer a mature PRNG where one is available. */
struct axon_rng
{
  uint32_t state;
};

typedef struct axon_rng axon_rng_z;

static inline void
axon_rng_init(axon_rng_z* self, const uint32_t seed)
{
  self->state = (seed == 0) ? 1 : seed;
}

static inline uint32_t
axon_rng(axon_rng_z* self)
{
  const uint32_t A = 1664525u;
  const uint32_t C = 1013904223u;
  self->state = A * self->state + C;
  return self->state;
}

static inline uint32_t
axon_rng_range(axon_rng_z* self, const uint32_t a, const uint32_t b)
{
  const uint32_t range = b - a + 1;
  if (range == 0) {
    return axon_rng(self);
  }

  const uint32_t limit = UINT32_MAX - (UINT32_MAX % range);
  uint32_t r;
  do {
    r = axon_rng(self);
  } while (r >= limit);

  return a + (r % range);
}

static inline float
axon_rng_float(axon_rng_z* self)
{
  return (float)(axon_rng(self) >> 8) * (1.0F / 16777216.0F);
}

static inline void
axon_rng_float_array(axon_rng_z* self, float* AXON_RESTRICT data, const size_t len, const float scale, const float bias)
{
  for (size_t i = 0; i < len; i++) {
    data[i] = axon_rng_float(self) * scale + bias;
  }
}
`

const cOptimizer = `/* Optimizer */

#ifndef AXON_BUFFER_ALIGN
#define AXON_BUFFER_ALIGN 128 /* one cache line */
#endif

#define AXON_BUFFER_SIZE ((((AXON_PARAMETERS) * sizeof(float) + (AXON_BUFFER_ALIGN - 1)) / AXON_BUFFER_ALIGN) * AXON_BUFFER_ALIGN)

struct axon_opt
{
  float gradient[AXON_BUFFER_SIZE / sizeof(float)];

  float momentum[2][AXON_BUFFER_SIZE / sizeof(float)];

  size_t step;
};

typedef struct axon_opt axon_opt_z;

static inline void
axon_opt_init(axon_opt_z* self)
{
  self->step = 0;
  for (size_t i = 0; i < (AXON_BUFFER_SIZE / sizeof(float)); i++) {
    self->gradient[i] = 0.0F;
    self->momentum[0][i] = 0.0F;
    self->momentum[1][i] = 0.0F;
  }
}

static inline void
axon_opt_zero_grad(axon_opt_z* self)
{
  for (size_t i = 0; i < (AXON_BUFFER_SIZE / sizeof(float)); i++) {
    self->gradient[i] = 0.0F;
  }
}

/* m = m * momentum + g * (1 - momentum); parameters -= m * lr */
static inline void
axon_opt_step(axon_opt_z* self, const float lr, const float momentum, float* AXON_RESTRICT parameters)
{
  const float* AXON_RESTRICT g = self->gradient;
  const float* AXON_RESTRICT m0 = self->momentum[self->step & 1];
  float* AXON_RESTRICT m1 = self->momentum[(self->step + 1) & 1];

  for (size_t i = 0; i < AXON_PARAMETERS; i++) {
    const float m = m0[i] * momentum + g[i] * (1.0F - momentum);
    m1[i] = m;
    parameters[i] -= m * lr;
  }

  self->step++;
}

/* Fills parameters uniformly in [-0.1, 0.1). */
static inline void
axon_params_init(float* AXON_RESTRICT parameters, const uint32_t seed)
{
  axon_rng_z rng;
  axon_rng_init(&rng, seed);
  axon_rng_float_array(&rng, parameters, AXON_PARAMETERS, 0.2F, -0.1F);
}
`

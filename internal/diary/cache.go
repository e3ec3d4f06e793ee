package diary

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	megabyte                    = 1024 * 1024
	defaultRecommendationsCache = 10 * megabyte
	recommendationsCacheExpire  = time.Hour
)

type cachedRecommendations struct {
	Suggestions      []string          `json:"suggestions"`
	FeaturedWorkouts []FeaturedWorkout `json:"featuredWorkouts"`
	GeneratedAt      time.Time         `json:"generatedAt"`
}

// RecommendationsCache keeps successful recommendations in memory, keyed by
// user and prompt, so the same context window is not sent to the model twice.
type RecommendationsCache struct {
	cache  *freecache.Cache
	expire time.Duration
}

func NewRecommendationsCache(sizeBytes int) *RecommendationsCache {
	if sizeBytes <= 0 {
		sizeBytes = defaultRecommendationsCache
	}
	return &RecommendationsCache{
		cache:  freecache.NewCache(sizeBytes),
		expire: recommendationsCacheExpire,
	}
}

func RecommendationsCacheKey(userID, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "recommendations::" + userID + "::" + hex.EncodeToString(sum[:])
}

func (c *RecommendationsCache) Get(key string) (*cachedRecommendations, bool) {
	b, err := c.cache.Get([]byte(key))
	if err != nil {
		log.Tracef("recommendations cache miss [%s]: %s", key, err)
		return nil, false
	}

	cached := &cachedRecommendations{}
	if err := json.Unmarshal(b, cached); err != nil {
		log.Errorf("unmarshal cached recommendations [%s]: %s", key, err)
		return nil, false
	}
	return cached, true
}

func (c *RecommendationsCache) Set(key string, rec *cachedRecommendations) {
	b, err := json.Marshal(rec)
	if err != nil {
		log.Errorf("marshal recommendations for cache [%s]: %s", key, err)
		return
	}
	if err := c.cache.Set([]byte(key), b, int(c.expire.Seconds())); err != nil {
		log.Errorf("set recommendations cache [%s]: %s", key, err)
		return
	}
	log.Debugf("recommendations cache set [%s]", key)
}

func (c *RecommendationsCache) Clear() {
	c.cache.Clear()
}
